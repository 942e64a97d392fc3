package httpcontroller

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/classifier"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/datastore"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/imaging"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
)

const (
	// uploadField is the multipart field holding the leaf image.
	uploadField = "image"

	// maxHistoryLimit caps the rows returned by GET /api/v1/history.
	maxHistoryLimit = 500
)

// RankedClass is one entry of the top-K ranking.
type RankedClass struct {
	Label       string  `json:"label"`
	DisplayName string  `json:"display_name"`
	Confidence  float64 `json:"confidence"`
}

// PredictResponse is the diagnosis of one uploaded image.
type PredictResponse struct {
	Label       string        `json:"label"`
	DisplayName string        `json:"display_name"`
	Confidence  float64       `json:"confidence"`
	Treatment   string        `json:"treatment"`
	Prevention  []string      `json:"prevention,omitempty"`
	Top         []RankedClass `json:"top"`
	SHA256      string        `json:"sha256"`
	DurationMS  float64       `json:"duration_ms"`
	Cached      bool          `json:"cached"`
}

// upload is a validated image upload.
type upload struct {
	name string
	data []byte
}

// wantsJSON reports whether the client asked for a JSON response.
func wantsJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// readUpload extracts the image from the multipart form and checks its
// extension.
func (s *Server) readUpload(c echo.Context) (*upload, error) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return nil, he
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "No image uploaded, send a jpg, jpeg or png file in the \"image\" field").SetInternal(err)
	}

	if !imaging.IsSupported(fh.Filename) {
		return nil, echo.NewHTTPError(http.StatusUnsupportedMediaType,
			"Unsupported file type "+strconv.Quote(filepath.Ext(fh.Filename))+", upload a jpg, jpeg or png image")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Unable to read the uploaded file").SetInternal(err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Unable to read the uploaded file").SetInternal(err)
	}
	if len(data) == 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "The uploaded file is empty")
	}

	if s.Metrics != nil {
		s.Metrics.HTTP.RecordUpload(int64(len(data)))
	}
	return &upload{name: filepath.Base(fh.Filename), data: data}, nil
}

// classifier returns the shared classifier, loading it on first use.
func (s *Server) classifier() (*classifier.Classifier, error) {
	firstLoad := !s.Loader.Loaded()
	clf, err := s.Loader.Get()
	if firstLoad && s.Metrics != nil {
		s.Metrics.Classifier.RecordModelLoad(err)
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "The model is not available").SetInternal(err)
	}
	return clf, nil
}

// diagnose classifies an upload, consulting the result cache first, and
// records the outcome in the history store.
func (s *Server) diagnose(ctx context.Context, up *upload) (*PredictResponse, error) {
	sum := sha256.Sum256(up.data)
	digest := hex.EncodeToString(sum[:])

	resp, hit := s.cachedResult(digest)
	if !hit {
		clf, err := s.classifier()
		if err != nil {
			return nil, err
		}
		pred, err := clf.PredictBytes(ctx, up.data)
		if err != nil {
			return nil, err
		}
		resp = s.newPredictResponse(pred, digest)
		s.storeResult(digest, resp)
	}

	s.record(ctx, up.name, resp)
	return resp, nil
}

func (s *Server) newPredictResponse(pred *classifier.Prediction, digest string) *PredictResponse {
	resp := &PredictResponse{
		Label:       pred.Label,
		DisplayName: displayName(pred.Label),
		Confidence:  pred.Confidence,
		Treatment:   s.Remedies.Lookup(pred.Label),
		SHA256:      digest,
		DurationMS:  float64(pred.Duration.Microseconds()) / 1000,
		Top:         make([]RankedClass, 0, len(pred.Top)),
	}
	if entry, ok := s.Remedies.Entry(pred.Label); ok {
		resp.Prevention = entry.Prevention
	}
	for _, r := range pred.Top {
		resp.Top = append(resp.Top, RankedClass{
			Label:       r.Label,
			DisplayName: displayName(r.Label),
			Confidence:  r.Confidence,
		})
	}
	return resp
}

// record stores a diagnosis in the history. Failures are logged only.
func (s *Server) record(ctx context.Context, file string, resp *PredictResponse) {
	if s.DS == nil {
		return
	}
	err := s.DS.Save(ctx, &datastore.Diagnosis{
		Label:       resp.Label,
		Confidence:  resp.Confidence,
		Remedy:      resp.Treatment,
		SourceFile:  file,
		ImageSHA256: resp.SHA256,
	})
	if err != nil {
		s.log.Warn("failed to store prediction history",
			logger.String("file", file),
			logger.Error(err))
	}
}

// GetIndex renders the upload page.
func (s *Server) GetIndex(c echo.Context) error {
	return c.Render(http.StatusOK, "index", PageData{Title: PageTitle})
}

// PostPredict handles the upload form. Browsers get the page with result
// banners, clients sending Accept: application/json get the JSON diagnosis.
func (s *Server) PostPredict(c echo.Context) error {
	up, err := s.readUpload(c)
	if err != nil {
		return err
	}
	resp, err := s.diagnose(c.Request().Context(), up)
	if err != nil {
		return err
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, resp)
	}

	mimeType := http.DetectContentType(up.data)
	preview := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(up.data)
	return c.Render(http.StatusOK, "index", PageData{
		Title:    PageTitle,
		FileName: up.name,
		Preview:  template.URL(preview), //nolint:gosec // built from the sniffed image type and base64 data
		Result:   resp,
	})
}

// APIPredict handles POST /api/v1/predict.
func (s *Server) APIPredict(c echo.Context) error {
	up, err := s.readUpload(c)
	if err != nil {
		return err
	}
	resp, err := s.diagnose(c.Request().Context(), up)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// ClassInfo describes one class of the loaded model.
type ClassInfo struct {
	Index       int    `json:"index"`
	Label       string `json:"label"`
	DisplayName string `json:"display_name"`
}

// GetClasses handles GET /api/v1/classes.
func (s *Server) GetClasses(c echo.Context) error {
	clf, err := s.classifier()
	if err != nil {
		return err
	}
	classes := clf.Classes()
	out := make([]ClassInfo, len(classes))
	for i, label := range classes {
		out[i] = ClassInfo{Index: i, Label: label, DisplayName: displayName(label)}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"count":   len(out),
		"classes": out,
	})
}

// RemedyInfo is one entry of the remedy table.
type RemedyInfo struct {
	Label       string   `json:"label"`
	DisplayName string   `json:"display_name"`
	Treatment   string   `json:"treatment"`
	Prevention  []string `json:"prevention,omitempty"`
}

// GetRemedies handles GET /api/v1/remedies.
func (s *Server) GetRemedies(c echo.Context) error {
	labels := s.Remedies.Labels()
	out := make([]RemedyInfo, 0, len(labels))
	for _, label := range labels {
		entry, _ := s.Remedies.Entry(label)
		out = append(out, RemedyInfo{
			Label:       label,
			DisplayName: displayName(label),
			Treatment:   entry.Treatment,
			Prevention:  entry.Prevention,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"count":    len(out),
		"remedies": out,
	})
}

// GetHistory handles GET /api/v1/history?limit=N.
func (s *Server) GetHistory(c echo.Context) error {
	limit := datastore.DefaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			return echo.NewHTTPError(http.StatusBadRequest,
				"limit must be between 1 and "+strconv.Itoa(maxHistoryLimit))
		}
		limit = n
	}

	ctx := c.Request().Context()
	rows, err := s.DS.List(ctx, limit)
	if err != nil {
		return err
	}
	total, err := s.DS.Count(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"total": total,
		"items": rows,
	})
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string        `json:"status"`
	Version     string        `json:"version"`
	ModelLoaded bool          `json:"model_loaded"`
	Goroutines  int           `json:"goroutines"`
	Memory      *MemoryStatus `json:"memory,omitempty"`
}

// MemoryStatus reports system memory usage.
type MemoryStatus struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"used_percent"`
}

// GetHealth handles GET /health. It never loads the model.
func (s *Server) GetHealth(c echo.Context) error {
	resp := HealthResponse{
		Status:      "ok",
		Version:     s.Settings.Version,
		ModelLoaded: s.Loader.Loaded(),
		Goroutines:  runtime.NumGoroutine(),
	}
	if vm, err := mem.VirtualMemoryWithContext(c.Request().Context()); err == nil {
		resp.Memory = &MemoryStatus{Total: vm.Total, Used: vm.Used, UsedPercent: vm.UsedPercent}
	} else {
		s.log.Debug("memory statistics unavailable", logger.Error(err))
	}
	return c.JSON(http.StatusOK, resp)
}
