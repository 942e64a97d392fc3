// Package predict provides the console predictor for a single leaf image.
package predict

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/analysis"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
)

// Command creates the predict command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict [image]",
		Short: "Diagnose a single leaf image",
		Long: `Predict classifies one jpg or png image and prints the detected disease,
the confidence and the treatment recommendation. Without an argument the
configured default image is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				settings.Predict.Image = args[0]
			}

			store, err := analysis.OpenHistory(settings, nil)
			if err != nil {
				return err
			}
			if store != nil {
				defer func() { _ = store.Close() }()
			}

			loader := analysis.NewLoader(settings)
			defer func() { _ = loader.Close() }()

			return analysis.FileAnalysis(cmd.Context(), settings, loader, store, cmd.OutOrStdout())
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		panic(err)
	}

	return cmd
}

// setupFlags configures flags specific to the predict command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Predict.ClassesDir, "classes-dir", viper.GetString("predict.classesdir"), "Directory whose sub-directories are checked against the model classes")
	cmd.Flags().IntVar(&settings.Predict.Top, "top", viper.GetInt("predict.top"), "Also print the N most likely classes")

	return conf.BindFlags(cmd.Flags(), map[string]string{
		"classes-dir": "predict.classesdir",
		"top":         "predict.top",
	})
}
