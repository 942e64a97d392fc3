package httpcontroller

import (
	"github.com/labstack/echo/v4"
)

// initRoutes registers the page, API and operational routes.
func (s *Server) initRoutes() {
	// Predict routes get the rate limiter, when enabled, and the upload limit.
	var predictMiddleware []echo.MiddlewareFunc
	if limiter := s.RateLimitMiddleware(); limiter != nil {
		predictMiddleware = append(predictMiddleware, limiter)
	}
	predictMiddleware = append(predictMiddleware, s.BodyLimitMiddleware())

	s.Echo.GET("/", s.GetIndex)
	s.Echo.POST("/predict", s.PostPredict, predictMiddleware...)

	api := s.Echo.Group("/api/v1")
	api.POST("/predict", s.APIPredict, predictMiddleware...)
	api.GET("/classes", s.GetClasses)
	api.GET("/remedies", s.GetRemedies)
	if s.DS != nil {
		api.GET("/history", s.GetHistory)
	}

	s.Echo.GET("/health", s.GetHealth)
	if s.Metrics != nil {
		s.Echo.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	}
}
