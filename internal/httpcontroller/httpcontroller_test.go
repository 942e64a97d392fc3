package httpcontroller

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/backbone"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/classifier"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/classifier/classifiertest"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/datastore"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/observability"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/remedy"
)

const (
	lateBlight          = "Tomato___Late_blight"
	healthy             = "Tomato___healthy"
	lateBlightTreatment = "Apply fungicides like chlorothalonil or mancozeb. Remove infected leaves."
	healthyTreatment    = "Plant is healthy. Ensure proper sunlight and soil care."
)

type testServer struct {
	*Server
}

func testSettings() *conf.Settings {
	s := &conf.Settings{Version: "test"}
	s.WebServer.Listen = "127.0.0.1:0"
	s.WebServer.MaxUploadSize = 1 << 20
	s.WebServer.ShutdownTimeout = 5 * time.Second
	s.WebServer.Cache.Enabled = true
	s.WebServer.Cache.TTL = time.Minute
	return s
}

func newTestServer(t *testing.T, mutate func(*conf.Settings), store datastore.Interface) *testServer {
	t.Helper()
	settings := testSettings()
	if mutate != nil {
		mutate(settings)
	}

	m, err := observability.NewMetrics()
	require.NoError(t, err)
	loader := classifiertest.NewLoader(t, lateBlight, healthy, classifier.WithRecorder(m.Classifier))

	s, err := New(settings, loader, remedy.Default(), store, m)
	require.NoError(t, err)
	return &testServer{Server: s}
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.Echo.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) upload(t *testing.T, path, filename string, data []byte, accept string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, uploadField, filename, data)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set(echo.HeaderContentType, contentType)
	if accept != "" {
		req.Header.Set(echo.HeaderAccept, accept)
	}
	return ts.do(req)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestIndexPage(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Plant Disease Analysis System</title>")
	assert.Contains(t, body, "Predict Disease")
	assert.Contains(t, body, `accept=".jpg,.jpeg,.png`)
	assert.NotContains(t, body, "Disease Detected:")
}

func TestPredictPage(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil, nil)

	rec := ts.upload(t, "/predict", "leaf.png", classifiertest.EncodePNG(t, classifiertest.Red), "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML)
	body := rec.Body.String()
	assert.Contains(t, body, "Disease Detected: "+lateBlight)
	assert.Contains(t, body, "Confidence: 100.00%")
	assert.Contains(t, body, "Treatment: "+lateBlightTreatment)
	assert.Contains(t, body, `src="data:image/png;base64,`)
	assert.Contains(t, body, "Use disease-resistant varieties")
}

func TestPredictJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		path      string
		accept    string
		fill      color.RGBA
		label     string
		treatment string
	}{
		{"form route with accept header", "/predict", echo.MIMEApplicationJSON, classifiertest.Green, healthy, healthyTreatment},
		{"api route", "/api/v1/predict", "", classifiertest.Red, lateBlight, lateBlightTreatment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ts := newTestServer(t, nil, nil)

			rec := ts.upload(t, tt.path, "leaf.png", classifiertest.EncodePNG(t, tt.fill), tt.accept)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			resp := decode[PredictResponse](t, rec)
			assert.Equal(t, tt.label, resp.Label)
			assert.Equal(t, tt.treatment, resp.Treatment)
			assert.InDelta(t, 1.0, resp.Confidence, 1e-3)
			assert.LessOrEqual(t, resp.Confidence, 1.0)
			require.Len(t, resp.Top, 2)
			assert.Equal(t, tt.label, resp.Top[0].Label)
			assert.Len(t, resp.SHA256, 64)
			assert.False(t, resp.Cached)
		})
	}
}

func TestPredictUsesCache(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil, nil)
	data := classifiertest.EncodePNG(t, classifiertest.Red)

	first := decode[PredictResponse](t, ts.upload(t, "/api/v1/predict", "a.png", data, ""))
	second := decode[PredictResponse](t, ts.upload(t, "/api/v1/predict", "b.png", data, ""))

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Label, second.Label)
	assert.InDelta(t, first.Confidence, second.Confidence, 0)
}

func TestPredictWithoutCache(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, func(s *conf.Settings) { s.WebServer.Cache.Enabled = false }, nil)
	data := classifiertest.EncodePNG(t, classifiertest.Green)

	first := decode[PredictResponse](t, ts.upload(t, "/api/v1/predict", "a.png", data, ""))
	second := decode[PredictResponse](t, ts.upload(t, "/api/v1/predict", "a.png", data, ""))

	assert.False(t, second.Cached)
	assert.Equal(t, first.Label, second.Label)
	assert.Equal(t, first.SHA256, second.SHA256)
	assert.InDelta(t, first.Confidence, second.Confidence, 0)
}

// pngHeader returns a PNG that declares w×h pixels but carries no pixel data.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8], ihdr[9] = 8, 2

	chunk := append([]byte("IHDR"), ihdr...)
	out := append([]byte("\x89PNG\r\n\x1a\n"), 0, 0, 0, 13)
	out = append(out, chunk...)
	return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(chunk))
}

func TestPredictRejectsBadUploads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		field    string
		filename string
		data     []byte
		want     int
	}{
		{"unsupported extension", uploadField, "leaf.gif", []byte("GIF89a"), http.StatusUnsupportedMediaType},
		{"no extension", uploadField, "leaf", []byte("data"), http.StatusUnsupportedMediaType},
		{"wrong field", "file", "leaf.png", []byte("data"), http.StatusBadRequest},
		{"empty file", uploadField, "leaf.png", nil, http.StatusBadRequest},
		{"not an image", uploadField, "leaf.jpg", []byte("definitely not a jpeg"), http.StatusBadRequest},
		{"too large", uploadField, "leaf.png", bytes.Repeat([]byte{0x89}, 4096), http.StatusRequestEntityTooLarge},
		{"huge canvas", uploadField, "leaf.png", pngHeader(50_000, 50_000), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ts := newTestServer(t, func(s *conf.Settings) { s.WebServer.MaxUploadSize = 2048 }, nil)

			body, contentType := multipartBody(t, tt.field, tt.filename, tt.data)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", body)
			req.Header.Set(echo.HeaderContentType, contentType)
			rec := ts.do(req)

			require.Equal(t, tt.want, rec.Code, rec.Body.String())
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.want, resp.Code)
			assert.NotEmpty(t, resp.Message)
			assert.NotEmpty(t, resp.CorrelationID)
			assert.Equal(t, rec.Header().Get(RequestIDHeader), resp.CorrelationID)
		})
	}
}

func TestPredictModelUnavailable(t *testing.T) {
	t.Parallel()
	settings := testSettings()
	loader := classifier.NewLoader(filepath.Join(t.TempDir(), "missing.zip"), backbone.Options{}, classifiertest.OpenFake)
	s, err := New(settings, loader, remedy.Default(), nil, nil)
	require.NoError(t, err)
	ts := &testServer{Server: s}

	rec := ts.upload(t, "/api/v1/predict", "leaf.png", classifiertest.EncodePNG(t, classifiertest.Red), "")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "The model is not available", decode[ErrorResponse](t, rec).Message)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/classes", http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, func(s *conf.Settings) {
		s.WebServer.RateLimit.Enabled = true
		s.WebServer.RateLimit.Rate = 0.001
		s.WebServer.RateLimit.Burst = 1
	}, nil)
	data := classifiertest.EncodePNG(t, classifiertest.Red)

	first := ts.upload(t, "/api/v1/predict", "leaf.png", data, "")
	second := ts.upload(t, "/api/v1/predict", "leaf.png", data, "")

	assert.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, decode[ErrorResponse](t, second).CorrelationID)

	// other routes are not limited
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/remedies", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetClasses(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/classes", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[struct {
		Count   int         `json:"count"`
		Classes []ClassInfo `json:"classes"`
	}](t, rec)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, []ClassInfo{
		{Index: 0, Label: lateBlight, DisplayName: "Tomato Late Blight"},
		{Index: 1, Label: healthy, DisplayName: "Tomato Healthy"},
	}, resp.Classes)
}

func TestGetRemedies(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/remedies", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[struct {
		Count    int          `json:"count"`
		Remedies []RemedyInfo `json:"remedies"`
	}](t, rec)
	assert.Equal(t, remedy.Default().Len(), resp.Count)

	byLabel := make(map[string]RemedyInfo, len(resp.Remedies))
	for _, r := range resp.Remedies {
		byLabel[r.Label] = r
	}
	require.Contains(t, byLabel, lateBlight)
	assert.Equal(t, lateBlightTreatment, byLabel[lateBlight].Treatment)
	assert.NotEmpty(t, byLabel[lateBlight].Prevention)
}

func TestHistory(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "history.db")
	store := datastore.New(settings)
	require.NotNil(t, store)
	require.NoError(t, store.Open())

	ts := newTestServer(t, nil, store)
	t.Cleanup(func() { _ = store.Close() })

	rec := ts.upload(t, "/api/v1/predict", "field-7.png", classifiertest.EncodePNG(t, classifiertest.Red), "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.upload(t, "/predict", "field-8.png", classifiertest.EncodePNG(t, classifiertest.Green), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=1", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[struct {
		Total int64                 `json:"total"`
		Items []datastore.Diagnosis `json:"items"`
	}](t, rec)
	assert.Equal(t, int64(2), resp.Total)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, healthy, resp.Items[0].Label)
	assert.Equal(t, "field-8.png", resp.Items[0].SourceFile)
	assert.Equal(t, healthyTreatment, resp.Items[0].Remedy)

	for _, limit := range []string{"0", "-1", "abc", "501"} {
		rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/history?limit="+limit, http.NoBody))
		assert.Equal(t, http.StatusBadRequest, rec.Code, limit)
	}
}

func TestHistoryDisabled(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/history", http.NoBody))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decode[ErrorResponse](t, rec).CorrelationID)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	before := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", before.Status)
	assert.Equal(t, "test", before.Version)
	assert.False(t, before.ModelLoaded)

	ts.upload(t, "/api/v1/predict", "leaf.png", classifiertest.EncodePNG(t, classifiertest.Red), "")

	after := decode[HealthResponse](t, ts.do(httptest.NewRequest(http.MethodGet, "/health", http.NoBody)))
	assert.True(t, after.ModelLoaded)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil, nil)

	ts.upload(t, "/api/v1/predict", "leaf.png", classifiertest.EncodePNG(t, classifiertest.Red), "")
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "leafscan_predictions_total")
	assert.Contains(t, body, "leafscan_model_loaded 1")
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, "leafscan_upload_size_bytes")
}

func TestRequestIDIsEchoed(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set(RequestIDHeader, "abc12345")
	rec := ts.do(req)
	assert.Equal(t, "abc12345", rec.Header().Get(RequestIDHeader))

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	assert.Len(t, rec.Header().Get(RequestIDHeader), 8)
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"echo error", echo.NewHTTPError(http.StatusUnsupportedMediaType, "nope"), http.StatusUnsupportedMediaType},
		{"image decode", errors.Newf("bad image").Category(errors.CategoryImageDecode).Build(), http.StatusBadRequest},
		{"validation", errors.Newf("bad").Category(errors.CategoryValidation).Build(), http.StatusBadRequest},
		{"not found", errors.Newf("gone").Category(errors.CategoryNotFound).Build(), http.StatusNotFound},
		{"model load", errors.Newf("broken").Category(errors.CategoryModelLoad).Build(), http.StatusServiceUnavailable},
		{"database", errors.Newf("locked").Category(errors.CategoryDatabase).Build(), http.StatusInternalServerError},
		{"plain", errors.NewStd("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, msg := statusFor(tt.err)
			assert.Equal(t, tt.want, code)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label string
		want  string
	}{
		{"Pepper__bell___Bacterial_spot", "Pepper Bell Bacterial Spot"},
		{"Tomato___healthy", "Tomato Healthy"},
		{"Potato___Early_blight", "Potato Early Blight"},
		{"plain", "Plain"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, displayName(tt.label))
		})
	}
}

func TestStartAndShutdown(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil, nil)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- ts.Start(ctx) }()

	require.Eventually(t, func() bool { return ts.Echo.ListenerAddr() != nil }, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + ts.Echo.ListenerAddr().String() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
