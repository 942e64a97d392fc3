package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandler(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	m.Classifier.RecordPrediction("Tomato___healthy", 0.97, 5*time.Millisecond)
	m.HTTP.RecordRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `leafscan_predictions_total{label="Tomato___healthy"} 1`)
	assert.Contains(t, string(body), "http_requests_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNewMetricsIndependentRegistries(t *testing.T) {
	t.Parallel()

	a, err := NewMetrics()
	require.NoError(t, err)
	b, err := NewMetrics()
	require.NoError(t, err)
	assert.NotSame(t, a.Registry(), b.Registry())
}
