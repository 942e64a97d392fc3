// Package logger provides a structured, module-aware logging system built on Go's standard log/slog.
//
// Components obtain a module-scoped logger from the central logger and log
// with typed fields:
//
//	log := logger.Global().Module("trainer")
//	log.Info("Epoch finished",
//	    logger.Int("epoch", 3),
//	    logger.Float64("val_accuracy", 0.91))
//
// Console output is human-readable text without timestamps; the optional
// file output is JSON with RFC3339 timestamps.
package logger

import (
	"context"
	"time"
)

// LogLevel represents log severity levels
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

const (
	errorKey   = "error"
	moduleKey  = "module"
	traceIDKey = "trace_id"
)

// Field represents a structured log field.
type Field struct {
	Key   string
	Value any
}

// Logger is the centralized logging interface for dependency injection
type Logger interface {
	// Module returns a logger scoped to a specific module
	Module(name string) Logger

	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Logger
	WithContext(ctx context.Context) Logger

	// Log with explicit level
	Log(level LogLevel, msg string, fields ...Field)

	// Flush ensures all buffered logs are written
	Flush() error
}

// String creates a string field for structured logging.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field for structured logging.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates a 64-bit integer field for structured logging.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Float32 creates a 32-bit float field, e.g. for confidence scores.
func Float32(key string, value float32) Field {
	return Field{Key: key, Value: value}
}

// Float64 creates a 64-bit float field for structured logging.
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field for structured logging.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Error creates an error field for structured logging.
// The field key is always "error"; a nil error yields a nil value.
func Error(err error) Field {
	if err == nil {
		return Field{Key: errorKey, Value: nil}
	}
	return Field{Key: errorKey, Value: err.Error()}
}

// Duration creates a duration field, rendered as a string like "1.5s".
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Time creates a time field for structured logging.
func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value}
}

// Any creates a field with any value for structured logging.
// Prefer the typed constructors for simple values.
func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}
