// Package train provides the command that fine-tunes the classifier head.
package train

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/backbone"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/backbone/runtimes"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/trainer"
)

// Command creates the train command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fine-tune the classifier on a PlantVillage style dataset",
		Long: `Train reads one sub-directory per class from the training and validation
directories, fits a dense head on top of the frozen backbone and writes the
model artifact, the training history CSV and the accuracy/loss plot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd.Context(), settings, cmd.OutOrStdout())
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		panic(err)
	}

	return cmd
}

// setupFlags configures flags specific to the train command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Train.TrainDir, "train-dir", viper.GetString("train.traindir"), "Training images, one sub-directory per class")
	cmd.Flags().StringVar(&settings.Train.ValDir, "val-dir", viper.GetString("train.valdir"), "Validation images, same classes as the training set")
	cmd.Flags().IntVar(&settings.Train.Epochs, "epochs", viper.GetInt("train.epochs"), "Number of training epochs")
	cmd.Flags().IntVar(&settings.Train.BatchSize, "batch-size", viper.GetInt("train.batchsize"), "Mini-batch size")
	cmd.Flags().Float64Var(&settings.Train.LearningRate, "learning-rate", viper.GetFloat64("train.learningrate"), "Adam learning rate")
	cmd.Flags().Int64Var(&settings.Train.Seed, "seed", viper.GetInt64("train.seed"), "Random seed for initialization, shuffling and augmentation")
	cmd.Flags().BoolVar(&settings.Train.Augment.Enabled, "augment", viper.GetBool("train.augment.enabled"), "Apply random rotation, zoom and flips to training images")
	cmd.Flags().StringVar(&settings.Train.PlotPath, "plot", viper.GetString("train.plotpath"), "PNG file for the accuracy and loss curves, empty to skip")
	cmd.Flags().StringVar(&settings.Train.HistoryPath, "history", viper.GetString("train.historypath"), "CSV file for per-epoch metrics, empty to skip")
	cmd.Flags().StringVar(&settings.Backbone.Path, "backbone", viper.GetString("backbone.path"), "Frozen backbone model file")
	cmd.Flags().StringVar(&settings.Backbone.Runtime, "runtime", viper.GetString("backbone.runtime"), "Backbone runtime: tflite or onnx")

	return conf.BindFlags(cmd.Flags(), map[string]string{
		"train-dir":     "train.traindir",
		"val-dir":       "train.valdir",
		"epochs":        "train.epochs",
		"batch-size":    "train.batchsize",
		"learning-rate": "train.learningrate",
		"seed":          "train.seed",
		"augment":       "train.augment.enabled",
		"plot":          "train.plotpath",
		"history":       "train.historypath",
		"backbone":      "backbone.path",
		"runtime":       "backbone.runtime",
	})
}

func runTrain(ctx context.Context, settings *conf.Settings, out io.Writer) error {
	fe, err := runtimes.Open(backbone.Options{
		Runtime:     settings.Backbone.Runtime,
		Path:        settings.Backbone.Path,
		InputName:   settings.Backbone.InputName,
		OutputName:  settings.Backbone.OutputName,
		Threads:     settings.Backbone.Threads,
		UseXNNPACK:  settings.Backbone.UseXNNPACK,
		ONNXLibrary: settings.Backbone.ONNXLibrary,
	})
	if err != nil {
		return err
	}
	defer func() { _ = fe.Close() }()

	t, err := trainer.New(trainer.ConfigFromSettings(settings), fe,
		trainer.WithEpochCallback(func(s trainer.EpochStats) {
			_, _ = fmt.Fprintf(out, "Epoch %d/%d - loss: %.4f - accuracy: %.4f - val_loss: %.4f - val_accuracy: %.4f (%s)\n",
				s.Epoch, settings.Train.Epochs, s.Loss, s.Accuracy, s.ValLoss, s.ValAccuracy, s.Duration.Round(time.Millisecond))
		}))
	if err != nil {
		return err
	}

	if _, err := t.Run(ctx); err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, "MODEL SAVED SUCCESSFULLY")
	return err
}
