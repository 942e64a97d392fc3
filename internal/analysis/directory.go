package analysis

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/classifier"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/datastore"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/imaging"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
)

// ListImages returns the supported image files directly inside dir, sorted
// by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		category := errors.CategoryFileIO
		if os.IsNotExist(err) {
			category = errors.CategoryNotFound
		}
		return nil, errors.New(err).
			Component("analysis").
			Category(category).
			Context("directory", dir).
			Build()
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && imaging.IsSupported(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// DirectoryAnalysis diagnoses every image in dir and writes a table or CSV
// to w. Files that fail are logged and skipped; the returned error then
// reports how many failed.
func DirectoryAnalysis(ctx context.Context, settings *conf.Settings, dir string, loader *classifier.Loader, store datastore.Interface, w io.Writer) error {
	files, err := ListImages(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.Newf("no jpg, jpeg or png images in %q", dir).
			Component("analysis").
			Category(errors.CategoryValidation).
			Build()
	}

	clf, err := loader.Get()
	if err != nil {
		return err
	}
	remedies, err := LoadRemedies(settings)
	if err != nil {
		return err
	}
	predictor := NewPredictor(clf, remedies, store)
	log := GetLogger()

	results := make([]*Result, 0, len(files))
	var failed int
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return errors.New(err).
				Component("analysis").
				Category(errors.CategoryCancellation).
				Build()
		}
		r, err := predictor.PredictFile(ctx, path)
		if err != nil {
			failed++
			log.Warn("skipping image", logger.String("file", filepath.Base(path)), logger.Error(err))
			continue
		}
		results = append(results, r)
	}

	if err := WriteResults(w, results, settings.Predict.Format); err != nil {
		return err
	}
	if failed > 0 {
		return errors.New(fmt.Errorf("%d of %d images could not be analyzed", failed, len(files))).
			Component("analysis").
			Category(errors.CategoryImageDecode).
			Build()
	}
	return nil
}
