package analysis

import (
	"context"
	"io"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/classifier"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/datastore"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
)

// FileAnalysis diagnoses settings.Predict.Image and writes the report to w.
// store may be nil.
func FileAnalysis(ctx context.Context, settings *conf.Settings, loader *classifier.Loader, store datastore.Interface, w io.Writer) error {
	clf, err := loader.Get()
	if err != nil {
		return err
	}

	if dir := settings.Predict.ClassesDir; dir != "" {
		if _, err := CheckClassDir(dir, clf.Classes()); err != nil {
			return err
		}
	}

	remedies, err := LoadRemedies(settings)
	if err != nil {
		return err
	}

	r, err := NewPredictor(clf, remedies, store).PredictFile(ctx, settings.Predict.Image)
	if err != nil {
		return err
	}
	GetLogger().Debug("image analyzed",
		logger.String("file", settings.Predict.Image),
		logger.String("label", r.Prediction.Label),
		logger.Float64("confidence", r.Prediction.Confidence),
		logger.Duration("duration", r.Prediction.Duration))

	return WriteResult(w, r, settings.Predict.Top)
}
