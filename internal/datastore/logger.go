package datastore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQueryThreshold marks queries logged as slow.
const DefaultSlowQueryThreshold = 200 * time.Millisecond

var (
	serviceLogger logger.Logger
	initOnce      sync.Once
)

// GetLogger returns the datastore module logger.
func GetLogger() logger.Logger {
	initOnce.Do(func() {
		serviceLogger = logger.Global().Module("datastore")
	})
	return serviceLogger
}

// GormLogger routes GORM logging through the central logger.
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormlogger.LogLevel
}

// NewGormLogger creates a GORM logger.
func NewGormLogger(slowThreshold time.Duration, logLevel gormlogger.LogLevel) *GormLogger {
	return &GormLogger{
		SlowThreshold: slowThreshold,
		LogLevel:      logLevel,
	}
}

func createGormLogger(debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return NewGormLogger(DefaultSlowQueryThreshold, level)
}

// LogMode implements logger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

// Info implements logger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= gormlogger.Info {
		GetLogger().WithContext(ctx).Info(fmt.Sprintf(msg, data...))
	}
}

// Warn implements logger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= gormlogger.Warn {
		GetLogger().WithContext(ctx).Warn(fmt.Sprintf(msg, data...))
	}
}

// Error implements logger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= gormlogger.Error {
		GetLogger().WithContext(ctx).Error("gorm error", logger.String("msg", fmt.Sprintf(msg, data...)))
	}
}

// Trace implements logger.Interface
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.LogLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	log := GetLogger().WithContext(ctx)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		log.Error("database query failed",
			logger.Error(err),
			logger.String("sql", sql),
			logger.Duration("duration", elapsed),
			logger.Int64("rows_affected", rows))
	case l.SlowThreshold != 0 && elapsed > l.SlowThreshold:
		log.Warn("slow query detected",
			logger.String("sql", sql),
			logger.Duration("duration", elapsed),
			logger.Duration("threshold", l.SlowThreshold))
	case l.LogLevel >= gormlogger.Info:
		log.Debug("query executed",
			logger.String("sql", sql),
			logger.Duration("duration", elapsed),
			logger.Int64("rows_affected", rows))
	}
}
