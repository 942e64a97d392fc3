package trainer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/imaging"
)

// Sample is one labelled image file.
type Sample struct {
	Path  string
	Class int
}

// Dataset is a directory of class sub-folders. Class indices follow the
// lexicographic order of the sub-folder names.
type Dataset struct {
	Dir     string
	Classes []string
	Samples []Sample
}

func datasetError(err error, dir string) error {
	return errors.New(err).
		Component("trainer").
		Category(errors.CategoryDataset).
		Context("directory", dir).
		Build()
}

// LoadDirectory lists the class sub-folders of dir and collects every jpg,
// jpeg and png file below each of them. A missing directory, a directory
// without classes or a class without images is an error.
func LoadDirectory(dir string) (*Dataset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf("dataset directory %q does not exist", dir).
				Component("trainer").
				Category(errors.CategoryNotFound).
				Context("directory", dir).
				Build()
		}
		return nil, datasetError(err, dir)
	}

	ds := &Dataset{Dir: dir}
	for _, e := range entries {
		if e.IsDir() {
			ds.Classes = append(ds.Classes, e.Name())
		}
	}
	slices.Sort(ds.Classes)
	if len(ds.Classes) == 0 {
		return nil, datasetError(fmt.Errorf("no class sub-directories in %q", dir), dir)
	}

	for idx, class := range ds.Classes {
		var files []string
		err := filepath.WalkDir(filepath.Join(dir, class), func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && imaging.IsSupported(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, datasetError(err, dir)
		}
		if len(files) == 0 {
			return nil, datasetError(fmt.Errorf("class %q has no images", class), dir)
		}
		for _, f := range files {
			ds.Samples = append(ds.Samples, Sample{Path: f, Class: idx})
		}
	}
	return ds, nil
}

// Counts returns the number of images per class, in class order.
func (ds *Dataset) Counts() []int {
	counts := make([]int, len(ds.Classes))
	for _, s := range ds.Samples {
		counts[s.Class]++
	}
	return counts
}

// CheckSameClasses fails unless val lists exactly the classes of train in
// the same order.
func CheckSameClasses(train, val *Dataset) error {
	if slices.Equal(train.Classes, val.Classes) {
		return nil
	}
	return errors.Newf("validation classes %v do not match training classes %v", val.Classes, train.Classes).
		Component("trainer").
		Category(errors.CategoryValidation).
		Context("train_dir", train.Dir).
		Context("val_dir", val.Dir).
		Build()
}
