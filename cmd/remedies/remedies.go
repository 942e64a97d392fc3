// Package remedies provides the command that lists the treatment advice.
package remedies

import (
	"github.com/spf13/cobra"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/analysis"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
)

// Command creates the remedies command.
func Command(settings *conf.Settings) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "remedies",
		Short: "List the treatment recommendation for each known disease",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := analysis.LoadRemedies(settings)
			if err != nil {
				return err
			}
			return analysis.WriteRemedies(cmd.OutOrStdout(), table, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", conf.FormatTable, "Output format: table, csv")

	return cmd
}
