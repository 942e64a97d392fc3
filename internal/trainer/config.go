package trainer

import (
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/artifact"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/imaging"
)

// Config is the fine-tuning recipe.
type Config struct {
	TrainDir     string
	ValDir       string
	BatchSize    int
	Epochs       int
	LearningRate float64
	HiddenUnits  int
	Dropout      float64
	Seed         int64
	Workers      int
	Augment      imaging.Augmenter

	OutputPath  string
	PlotPath    string
	HistoryPath string

	// Backbone is recorded in the artifact so inference opens the same model.
	Backbone artifact.BackboneRef
}

// ConfigFromSettings maps the train, model and backbone sections.
func ConfigFromSettings(s *conf.Settings) Config {
	cfg := Config{
		TrainDir:     s.Train.TrainDir,
		ValDir:       s.Train.ValDir,
		BatchSize:    s.Train.BatchSize,
		Epochs:       s.Train.Epochs,
		LearningRate: s.Train.LearningRate,
		HiddenUnits:  s.Train.HiddenUnits,
		Dropout:      s.Train.Dropout,
		Seed:         s.Train.Seed,
		Workers:      s.Train.Workers,
		OutputPath:   s.Model.Path,
		PlotPath:     s.Train.PlotPath,
		HistoryPath:  s.Train.HistoryPath,
		Backbone: artifact.BackboneRef{
			Runtime:    s.Backbone.Runtime,
			Path:       s.Backbone.Path,
			InputName:  s.Backbone.InputName,
			OutputName: s.Backbone.OutputName,
		},
	}
	if s.Train.Augment.Enabled {
		cfg.Augment = imaging.Augmenter{
			Rotation:       s.Train.Augment.Rotation,
			Zoom:           s.Train.Augment.Zoom,
			HorizontalFlip: s.Train.Augment.HorizontalFlip,
		}
	}
	return cfg
}

func (c *Config) validate() error {
	var problem string
	switch {
	case c.TrainDir == "" || c.ValDir == "":
		problem = "training and validation directories are required"
	case c.BatchSize <= 0:
		problem = "batch size must be positive"
	case c.Epochs <= 0:
		problem = "epochs must be positive"
	case c.LearningRate <= 0:
		problem = "learning rate must be positive"
	case c.HiddenUnits <= 0:
		problem = "hidden units must be positive"
	case c.Dropout < 0 || c.Dropout >= 1:
		problem = "dropout must be in [0, 1)"
	case c.OutputPath == "":
		problem = "output path is required"
	default:
		return nil
	}
	return errors.Newf("invalid training configuration: %s", problem).
		Component("trainer").
		Category(errors.CategoryConfiguration).
		Build()
}
