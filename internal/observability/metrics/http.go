package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics contains Prometheus metrics for the web app.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	uploadSize      prometheus.Histogram
	rateLimited     prometheus.Counter
}

// NewHTTPMetrics creates and registers HTTP metrics.
func NewHTTPMetrics(registry *prometheus.Registry) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Time taken for HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		uploadSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "leafscan_upload_size_bytes",
				Help:    "Size of accepted image uploads",
				Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10), // 16KiB to 8MiB
			},
		),
		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "leafscan_rate_limited_requests_total",
				Help: "Predict requests rejected by the rate limiter",
			},
		),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register HTTP metrics: %w", err)
	}
	return m, nil
}

// RecordRequest records one finished request. path is the route pattern,
// not the raw URL, to keep label cardinality bounded.
func (m *HTTPMetrics) RecordRequest(method, path string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordUpload records the size of an accepted upload.
func (m *HTTPMetrics) RecordUpload(bytes int64) {
	m.uploadSize.Observe(float64(bytes))
}

// RecordRateLimited counts a rejected request.
func (m *HTTPMetrics) RecordRateLimited() {
	m.rateLimited.Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *HTTPMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestsTotal.Describe(ch)
	m.requestDuration.Describe(ch)
	m.uploadSize.Describe(ch)
	m.rateLimited.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *HTTPMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requestsTotal.Collect(ch)
	m.requestDuration.Collect(ch)
	m.uploadSize.Collect(ch)
	m.rateLimited.Collect(ch)
}
