// Package observability wires the Prometheus collectors of leafscan into a
// single registry and exposes it over HTTP.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry   *prometheus.Registry
	Classifier *metrics.ClassifierMetrics
	HTTP       *metrics.HTTPMetrics
	Datastore  *metrics.DatastoreMetrics
}

// NewMetrics creates a registry with the process and Go collectors plus the
// leafscan collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	classifierMetrics, err := metrics.NewClassifierMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier metrics: %w", err)
	}

	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	datastoreMetrics, err := metrics.NewDatastoreMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore metrics: %w", err)
	}

	return &Metrics{
		registry:   registry,
		Classifier: classifierMetrics,
		HTTP:       httpMetrics,
		Datastore:  datastoreMetrics,
	}, nil
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      promErrorLogger{},
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// promErrorLogger forwards promhttp errors to the module logger.
type promErrorLogger struct{}

func (promErrorLogger) Println(v ...any) {
	GetLogger().Error(fmt.Sprint(v...))
}
