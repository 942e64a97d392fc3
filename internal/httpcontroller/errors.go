package httpcontroller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // matches the X-Request-ID response header
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(err error, message string, code int, correlationID string) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: correlationID,
	}
}

// HandleError logs err and writes it as a JSON error response.
func (s *Server) HandleError(c echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code, requestID(c))

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", c.Request().URL.Path),
		logger.String("method", c.Request().Method),
		logger.String("ip", c.RealIP()),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	if code >= http.StatusInternalServerError {
		s.log.Error("request error", fields...)
	} else {
		s.log.Debug("request error", fields...)
	}

	return c.JSON(code, resp)
}

// statusFor maps an error to its HTTP status and user-facing message.
func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}

	switch {
	case errors.IsCategory(err, errors.CategoryImageDecode):
		return http.StatusBadRequest, "The uploaded file is not a readable image"
	case errors.IsCategory(err, errors.CategoryValidation):
		return http.StatusBadRequest, "Invalid request"
	case errors.IsNotFound(err):
		return http.StatusNotFound, "Not found"
	case errors.IsCategory(err, errors.CategoryModelLoad),
		errors.IsCategory(err, errors.CategoryModelInit),
		errors.IsCategory(err, errors.CategoryLabelLoad):
		return http.StatusServiceUnavailable, "The model is not available"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// errorHandler is the echo HTTPErrorHandler: every unhandled error becomes a
// JSON ErrorResponse carrying the request correlation ID.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, message := statusFor(err)

	var he *echo.HTTPError
	if errors.As(err, &he) && he.Internal == nil {
		// plain echo errors such as 404 and 413 carry nothing beyond the message
		err = nil
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = s.HandleError(c, err, message, code)
	}
	if writeErr != nil {
		s.log.Warn("failed to write error response", logger.Error(writeErr))
	}
}
