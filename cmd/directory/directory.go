// Package directory provides the command that diagnoses every image in a
// directory.
package directory

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/analysis"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
)

// Command creates a new cobra.Command for directory analysis.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directory [path]",
		Short: "Diagnose all leaf images in a directory",
		Long:  "Provide a directory path to diagnose every jpg, jpeg and png image within it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := analysis.OpenHistory(settings, nil)
			if err != nil {
				return err
			}
			if store != nil {
				defer func() { _ = store.Close() }()
			}

			loader := analysis.NewLoader(settings)
			defer func() { _ = loader.Close() }()

			return analysis.DirectoryAnalysis(cmd.Context(), settings, args[0], loader, store, cmd.OutOrStdout())
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		panic(err)
	}

	return cmd
}

// setupFlags defines flags specific to the directory command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVarP(&settings.Predict.Format, "format", "f", viper.GetString("predict.format"), "Output format: table, csv")

	return conf.BindFlags(cmd.Flags(), map[string]string{
		"format": "predict.format",
	})
}
