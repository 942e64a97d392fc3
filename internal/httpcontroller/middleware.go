package httpcontroller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
)

// RequestIDHeader carries the per-request identifier.
const RequestIDHeader = "X-Request-ID"

// configureMiddleware sets up middleware for the server.
func (s *Server) configureMiddleware() {
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(s.RequestIDMiddleware())
	s.Echo.Use(s.LoggingMiddleware())
}

// requestID returns the request identifier, assigning one if missing.
func requestID(c echo.Context) string {
	id := c.Request().Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.New().String()[:8]
		c.Request().Header.Set(RequestIDHeader, id)
	}
	return id
}

// RequestIDMiddleware makes sure every request and response carries an ID.
func (s *Server) RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(RequestIDHeader, requestID(c))
			return next(c)
		}
	}
}

// LoggingMiddleware logs completed requests and records request metrics.
func (s *Server) LoggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// let the error handler write the response so the status is final
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			latency := time.Since(start)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			if s.Metrics != nil {
				s.Metrics.HTTP.RecordRequest(req.Method, route, res.Status, latency)
			}

			fields := []logger.Field{
				logger.String("request_id", requestID(c)),
				logger.String("method", req.Method),
				logger.String("path", req.URL.Path),
				logger.Int("status", res.Status),
				logger.Int64("latency_ms", latency.Milliseconds()),
				logger.Int64("bytes_out", res.Size),
				logger.String("ip", c.RealIP()),
			}
			switch {
			case res.Status >= http.StatusInternalServerError:
				s.log.Error("request failed", fields...)
			case res.Status >= http.StatusBadRequest:
				s.log.Warn("request rejected", fields...)
			default:
				s.log.Debug("request completed", fields...)
			}
			return nil
		}
	}
}

// BodyLimitMiddleware rejects request bodies above the configured upload
// size with 413.
func (s *Server) BodyLimitMiddleware() echo.MiddlewareFunc {
	limit := s.Settings.WebServer.MaxUploadSize
	if limit <= 0 {
		limit = conf.DefaultMaxUploadSize
	}
	// a bare number is parsed as bytes
	return middleware.BodyLimit(strconv.FormatInt(limit, 10))
}

// RateLimitMiddleware throttles predict requests per client IP. It returns
// nil when rate limiting is disabled.
func (s *Server) RateLimitMiddleware() echo.MiddlewareFunc {
	cfg := s.Settings.WebServer.RateLimit
	if !cfg.Enabled || cfg.Rate <= 0 {
		return nil
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.Rate),
				Burst:     cfg.Burst,
				ExpiresIn: 3 * time.Minute,
			},
		),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return s.HandleError(c, err, "Unable to identify client", http.StatusForbidden)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			if s.Metrics != nil {
				s.Metrics.HTTP.RecordRateLimited()
			}
			return s.HandleError(c, err, "Too many prediction requests, please wait before trying again", http.StatusTooManyRequests)
		},
	})
}
