// Package serve provides the command that runs the web app.
package serve

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/analysis"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/classifier"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/httpcontroller"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/observability"
)

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Plant Disease Analysis web app",
		Long:  "Serve the upload page and the JSON prediction API until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		panic(err)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Listen, "listen", viper.GetString("webserver.listen"), "Listen address and port of the web app")
	cmd.Flags().Int64Var(&settings.WebServer.MaxUploadSize, "max-upload-size", viper.GetInt64("webserver.maxuploadsize"), "Largest accepted upload in bytes")
	cmd.Flags().BoolVar(&settings.WebServer.Cache.Enabled, "cache", viper.GetBool("webserver.cache.enabled"), "Cache predictions by image digest")
	cmd.Flags().BoolVar(&settings.WebServer.RateLimit.Enabled, "ratelimit", viper.GetBool("webserver.ratelimit.enabled"), "Rate limit prediction requests per client")
	cmd.Flags().BoolVar(&settings.Output.SQLite.Enabled, "history", viper.GetBool("output.sqlite.enabled"), "Store predictions in the SQLite history database")

	return conf.BindFlags(cmd.Flags(), map[string]string{
		"listen":          "webserver.listen",
		"max-upload-size": "webserver.maxuploadsize",
		"cache":           "webserver.cache.enabled",
		"ratelimit":       "webserver.ratelimit.enabled",
		"history":         "output.sqlite.enabled",
	})
}

func runServe(ctx context.Context, settings *conf.Settings) error {
	log := logger.Global().Module("serve")

	m, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	remedies, err := analysis.LoadRemedies(settings)
	if err != nil {
		return err
	}

	// load the model before accepting requests so a broken artifact fails fast
	loader := analysis.NewLoader(settings, classifier.WithRecorder(m.Classifier))
	defer func() { _ = loader.Close() }()
	clf, err := loader.Get()
	m.Classifier.RecordModelLoad(err)
	if err != nil {
		return err
	}

	store, err := analysis.OpenHistory(settings, m.Datastore)
	if err != nil {
		return err
	}

	server, err := httpcontroller.New(settings, loader, remedies, store, m)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return err
	}

	log.Info("starting web app",
		logger.String("listen", settings.WebServer.Listen),
		logger.Int("classes", len(clf.Classes())),
		logger.Bool("history", store != nil))
	return server.Start(ctx)
}
