package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/cmd/directory"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/cmd/predict"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/cmd/remedies"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/cmd/serve"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/cmd/train"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/telemetry"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "leafscan",
		Short:         "Plant leaf disease classifier",
		Long:          "Train a plant leaf disease classifier, serve it through a web page, or diagnose images from the console.",
		Version:       settings.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		panic(err)
	}

	remediesCmd := remedies.Command(settings)

	subcommands := []*cobra.Command{
		train.Command(settings),
		serve.Command(settings),
		predict.Command(settings),
		directory.Command(settings),
		remediesCmd,
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// listing remedies needs no logging or telemetry
		if cmd.Name() == remediesCmd.Name() {
			return conf.ValidateSettings(settings)
		}
		return initialize(cmd, settings)
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		telemetry.Shutdown()
		_ = logger.Global().Flush()
	}

	return rootCmd
}

// initialize validates the flag-adjusted settings and sets up logging and
// error telemetry before any sub-command runs.
func initialize(cmd *cobra.Command, settings *conf.Settings) error {
	if err := conf.ValidateSettings(settings); err != nil {
		return err
	}

	central, err := newLogger(cmd, settings)
	if err != nil {
		return err
	}
	logger.SetGlobal(central)

	if err := telemetry.InitSentry(settings); err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	return nil
}

// newLogger builds the central logger. Console records go to the command's
// stderr so stdout carries only results.
func newLogger(cmd *cobra.Command, settings *conf.Settings) (*logger.CentralLogger, error) {
	logCfg := settings.Main.Log.LoggingConfig()
	if settings.Debug {
		logCfg.DefaultLevel = "debug"
		logCfg.Console.Level = "debug"
	}
	logCfg.Console.Writer = cmd.ErrOrStderr()

	central, err := logger.NewCentralLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return central, nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	flags.StringVarP(&settings.Model.Path, "model", "m", viper.GetString("model.path"), "Path to the trained model artifact")
	flags.StringVar(&settings.Remedies.Path, "remedies", viper.GetString("remedies.path"), "YAML file with additional treatment advice")
	flags.IntVar(&settings.Backbone.Threads, "threads", viper.GetInt("backbone.threads"), "Backbone interpreter threads, 0 for all cores")

	return conf.BindFlags(flags, map[string]string{
		"debug":    "debug",
		"model":    "model.path",
		"remedies": "remedies.path",
		"threads":  "backbone.threads",
	})
}
