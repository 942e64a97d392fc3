// Package metrics provides custom Prometheus metrics for leafscan.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClassifierMetrics contains Prometheus metrics for model loading and
// predictions.
type ClassifierMetrics struct {
	PredictionTotal      *prometheus.CounterVec
	PredictionErrors     *prometheus.CounterVec
	PredictionDuration   prometheus.Histogram
	PredictionConfidence prometheus.Histogram
	ModelLoadTotal       *prometheus.CounterVec
	ModelLoadedGauge     prometheus.Gauge
	CacheLookups         *prometheus.CounterVec
}

// NewClassifierMetrics creates and registers classifier metrics.
func NewClassifierMetrics(registry *prometheus.Registry) (*ClassifierMetrics, error) {
	m := &ClassifierMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register classifier metrics: %w", err)
	}
	return m, nil
}

func (m *ClassifierMetrics) initMetrics() {
	m.PredictionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leafscan_predictions_total",
			Help: "Total number of predictions partitioned by predicted label.",
		},
		[]string{"label"},
	)
	m.PredictionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leafscan_prediction_errors_total",
			Help: "Total number of failed predictions partitioned by error type.",
		},
		[]string{"error_type"},
	)
	m.PredictionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leafscan_prediction_duration_seconds",
			Help:    "Time taken by backbone and head for one image.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
		},
	)
	m.PredictionConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leafscan_prediction_confidence",
			Help:    "Confidence of the top class.",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)
	m.ModelLoadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leafscan_model_load_total",
			Help: "Total number of model load attempts.",
		},
		[]string{"status"},
	)
	m.ModelLoadedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "leafscan_model_loaded",
			Help: "Whether the model is currently loaded (1) or not (0).",
		},
	)
	m.CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leafscan_prediction_cache_lookups_total",
			Help: "Prediction cache lookups partitioned by result.",
		},
		[]string{"result"},
	)
}

// RecordPrediction records a successful prediction.
func (m *ClassifierMetrics) RecordPrediction(label string, confidence float64, duration time.Duration) {
	m.PredictionTotal.WithLabelValues(label).Inc()
	m.PredictionDuration.Observe(duration.Seconds())
	m.PredictionConfidence.Observe(confidence)
}

// RecordPredictionError records a failed prediction.
func (m *ClassifierMetrics) RecordPredictionError(errorType string) {
	m.PredictionErrors.WithLabelValues(errorType).Inc()
}

// RecordModelLoad records a model load attempt.
func (m *ClassifierMetrics) RecordModelLoad(err error) {
	if err != nil {
		m.ModelLoadTotal.WithLabelValues("error").Inc()
		m.ModelLoadedGauge.Set(0)
		return
	}
	m.ModelLoadTotal.WithLabelValues("success").Inc()
	m.ModelLoadedGauge.Set(1)
}

// RecordCacheLookup records a prediction cache hit or miss.
func (m *ClassifierMetrics) RecordCacheLookup(hit bool) {
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *ClassifierMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.PredictionTotal.Describe(ch)
	m.PredictionErrors.Describe(ch)
	m.PredictionDuration.Describe(ch)
	m.PredictionConfidence.Describe(ch)
	m.ModelLoadTotal.Describe(ch)
	ch <- m.ModelLoadedGauge.Desc()
	m.CacheLookups.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *ClassifierMetrics) Collect(ch chan<- prometheus.Metric) {
	m.PredictionTotal.Collect(ch)
	m.PredictionErrors.Collect(ch)
	m.PredictionDuration.Collect(ch)
	m.PredictionConfidence.Collect(ch)
	m.ModelLoadTotal.Collect(ch)
	ch <- m.ModelLoadedGauge
	m.CacheLookups.Collect(ch)
}
