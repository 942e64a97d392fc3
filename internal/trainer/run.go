package trainer

import (
	"context"
	"time"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/artifact"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
)

// Result is what a completed training run produced.
type Result struct {
	Artifact *artifact.Artifact
	History  *History
	Train    *Dataset
	Val      *Dataset
}

// Run loads both datasets, fits the head, writes the artifact and then the
// optional history CSV and curve plot.
func (t *Trainer) Run(ctx context.Context) (*Result, error) {
	log := GetLogger()

	train, err := LoadDirectory(t.cfg.TrainDir)
	if err != nil {
		return nil, err
	}
	val, err := LoadDirectory(t.cfg.ValDir)
	if err != nil {
		return nil, err
	}
	log.Info("datasets loaded",
		logger.Int("train_images", len(train.Samples)),
		logger.Int("val_images", len(val.Samples)),
		logger.Int("classes", len(train.Classes)))

	h, hist, err := t.Fit(ctx, train, val)
	if err != nil {
		return nil, err
	}

	in, hidden, out := h.Sizes()
	ref := t.cfg.Backbone
	ref.FeatureSize = in
	last, _ := hist.Last()

	a := &artifact.Artifact{
		Metadata: artifact.Metadata{
			Version:   artifact.FormatVersion,
			Backbone:  ref,
			InputSize: artifact.InputSize,
			Channels:  artifact.Channels,
			Head: artifact.HeadSpec{
				Input:      in,
				Hidden:     hidden,
				Output:     out,
				Activation: "relu",
				Dropout:    t.cfg.Dropout,
			},
			Classes: train.Classes,
			Training: artifact.TrainingSummary{
				Epochs:           hist.Len(),
				BatchSize:        t.cfg.BatchSize,
				LearningRate:     t.cfg.LearningRate,
				TrainImages:      len(train.Samples),
				ValImages:        len(val.Samples),
				FinalAccuracy:    last.Accuracy,
				FinalLoss:        last.Loss,
				FinalValAccuracy: last.ValAccuracy,
				FinalValLoss:     last.ValLoss,
				CreatedAt:        time.Now().UTC(),
			},
		},
		Head: h,
	}
	if err := artifact.Save(t.cfg.OutputPath, a); err != nil {
		return nil, err
	}
	log.Info("model saved", logger.String("path", t.cfg.OutputPath))

	if t.cfg.HistoryPath != "" {
		if err := hist.SaveCSV(t.cfg.HistoryPath); err != nil {
			return nil, err
		}
	}
	if t.cfg.PlotPath != "" {
		if err := hist.SavePlot(t.cfg.PlotPath); err != nil {
			return nil, err
		}
		log.Info("training curves written", logger.String("path", t.cfg.PlotPath))
	}

	return &Result{Artifact: a, History: hist, Train: train, Val: val}, nil
}
