package analysis

import (
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/backbone"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/backbone/runtimes"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/classifier"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/datastore"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/remedy"
)

// NewLoader returns a memoized loader for the configured artifact. The
// artifact names its backbone; settings only tune the runtime.
func NewLoader(settings *conf.Settings, opts ...classifier.Option) *classifier.Loader {
	return newLoader(settings, runtimes.Open, opts...)
}

func newLoader(settings *conf.Settings, open classifier.OpenFunc, opts ...classifier.Option) *classifier.Loader {
	// rank deep enough for --top as well as the configured default
	if k := max(settings.Model.TopK, settings.Predict.Top); k > 0 {
		opts = append([]classifier.Option{classifier.WithTopK(k)}, opts...)
	}
	return classifier.NewLoader(settings.Model.Path, backbone.Options{
		Threads:     settings.Backbone.Threads,
		UseXNNPACK:  settings.Backbone.UseXNNPACK,
		ONNXLibrary: settings.Backbone.ONNXLibrary,
	}, open, opts...)
}

// LoadRemedies returns the built-in remedy table merged with the optional
// override file.
func LoadRemedies(settings *conf.Settings) (*remedy.Table, error) {
	return remedy.Load(settings.Remedies.Path)
}

// OpenHistory opens the prediction history store when one is enabled. It
// returns nil, nil when history is disabled.
func OpenHistory(settings *conf.Settings, recorder datastore.OperationRecorder) (datastore.Interface, error) {
	store := datastore.New(settings)
	if store == nil {
		return nil, nil
	}
	if recorder != nil {
		datastore.SetRecorder(store, recorder)
	}
	if err := store.Open(); err != nil {
		return nil, err
	}
	return store, nil
}
