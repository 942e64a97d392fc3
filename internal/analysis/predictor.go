// Package analysis runs the trained classifier from the console: a single
// image with the three-line report, or every image in a directory.
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/classifier"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/datastore"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/remedy"
)

// Result is one diagnosed image.
type Result struct {
	File       string
	Prediction *classifier.Prediction
	Remedy     string
	SHA256     string
}

// Predictor pairs a classifier with remedy advice and optional history.
type Predictor struct {
	clf      *classifier.Classifier
	remedies *remedy.Table
	store    datastore.Interface
}

// NewPredictor returns a Predictor. store may be nil.
func NewPredictor(clf *classifier.Classifier, remedies *remedy.Table, store datastore.Interface) *Predictor {
	return &Predictor{clf: clf, remedies: remedies, store: store}
}

// PredictFile diagnoses the image at path.
func (p *Predictor) PredictFile(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		category := errors.CategoryFileIO
		if os.IsNotExist(err) {
			category = errors.CategoryNotFound
		}
		return nil, errors.New(err).
			Component("analysis").
			Category(category).
			FileContext(path, 0).
			Build()
	}

	pred, err := p.clf.PredictBytes(ctx, data)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	r := &Result{
		File:       path,
		Prediction: pred,
		Remedy:     p.remedies.Lookup(pred.Label),
		SHA256:     hex.EncodeToString(sum[:]),
	}
	p.record(ctx, r)
	return r, nil
}

// record stores r in the history. Storage failures are logged only.
func (p *Predictor) record(ctx context.Context, r *Result) {
	if p.store == nil {
		return
	}
	err := p.store.Save(ctx, &datastore.Diagnosis{
		Label:       r.Prediction.Label,
		Confidence:  r.Prediction.Confidence,
		Remedy:      r.Remedy,
		SourceFile:  filepath.Base(r.File),
		ImageSHA256: r.SHA256,
	})
	if err != nil {
		GetLogger().Warn("failed to store prediction history",
			logger.String("file", filepath.Base(r.File)),
			logger.Error(err))
	}
}
