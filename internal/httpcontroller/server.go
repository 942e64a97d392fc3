// internal/httpcontroller/server.go
package httpcontroller

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/classifier"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/datastore"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/observability"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/remedy"
)

var (
	serviceLogger logger.Logger
	initOnce      sync.Once
)

// GetLogger returns the web server logger.
func GetLogger() logger.Logger {
	initOnce.Do(func() {
		serviceLogger = logger.Global().Module("httpcontroller")
	})
	return serviceLogger
}

// Server encapsulates Echo server and related configurations.
type Server struct {
	Echo     *echo.Echo
	DS       datastore.Interface
	Settings *conf.Settings
	Loader   *classifier.Loader
	Remedies *remedy.Table
	Metrics  *observability.Metrics

	results *cache.Cache // nil when the result cache is disabled
	log     logger.Logger
}

// New initializes a new HTTP server. store and m may be nil.
func New(settings *conf.Settings, loader *classifier.Loader, remedies *remedy.Table, store datastore.Interface, m *observability.Metrics) (*Server, error) {
	s := &Server{
		Echo:     echo.New(),
		DS:       store,
		Settings: settings,
		Loader:   loader,
		Remedies: remedies,
		Metrics:  m,
		log:      GetLogger(),
	}

	if settings.WebServer.Cache.Enabled && settings.WebServer.Cache.TTL > 0 {
		ttl := settings.WebServer.Cache.TTL
		s.results = cache.New(ttl, ttl*2)
	}

	if err := s.initializeServer(); err != nil {
		return nil, err
	}
	return s, nil
}

// initializeServer configures and initializes the server.
func (s *Server) initializeServer() error {
	renderer, err := NewTemplateRenderer()
	if err != nil {
		return errors.New(err).
			Component("httpcontroller").
			Category(errors.CategoryConfiguration).
			Build()
	}
	s.Echo.Renderer = renderer
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.HTTPErrorHandler = s.errorHandler
	s.Echo.Server.ReadTimeout = s.Settings.WebServer.ReadTimeout
	s.Echo.Server.WriteTimeout = s.Settings.WebServer.WriteTimeout
	s.configureMiddleware()
	s.initRoutes()
	return nil
}

// Start serves HTTP until ctx is cancelled, then shuts the server down
// gracefully. It returns the first serve or shutdown error.
func (s *Server) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("web server listening", logger.String("address", s.Settings.WebServer.Listen))
		if err := s.Echo.Start(s.Settings.WebServer.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.New(err).
				Component("httpcontroller").
				Category(errors.CategoryHTTP).
				Context("listen", s.Settings.WebServer.Listen).
				Build()
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		timeout := s.Settings.WebServer.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown gracefully stops the server and closes the history store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down web server")
	err := s.Echo.Shutdown(ctx)
	if s.DS != nil {
		if closeErr := s.DS.Close(); closeErr != nil {
			s.log.Warn("failed to close history store", logger.Error(closeErr))
		}
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.New(err).
			Component("httpcontroller").
			Category(errors.CategoryHTTP).
			Build()
	}
	return nil
}
