// interfaces.go: prediction history storage backed by GORM
package datastore

import (
	"context"
	"time"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
	"gorm.io/gorm"
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// Interface abstracts the underlying database implementation.
type Interface interface {
	Open() error
	Save(ctx context.Context, d *Diagnosis) error
	List(ctx context.Context, limit int) ([]Diagnosis, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}

// OperationRecorder receives the outcome of each store operation.
type OperationRecorder interface {
	RecordOperation(operation string, duration time.Duration, err error)
}

// DataStore implements the shared queries on top of a GORM database.
type DataStore struct {
	DB       *gorm.DB // GORM database instance
	Recorder OperationRecorder
}

// New returns the store selected by settings, or nil when history is disabled.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

// SetRecorder attaches metrics to a store returned by New.
func SetRecorder(store Interface, r OperationRecorder) {
	switch s := store.(type) {
	case *SQLiteStore:
		s.Recorder = r
	case *MySQLStore:
		s.Recorder = r
	}
}

func (ds *DataStore) notOpen(operation string) error {
	return errors.Newf("database not open").
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Build()
}

func (ds *DataStore) record(operation string, start time.Time, err error) {
	if ds.Recorder != nil {
		ds.Recorder.RecordOperation(operation, time.Since(start), err)
	}
}

// Save stores one prediction record.
func (ds *DataStore) Save(ctx context.Context, d *Diagnosis) (err error) {
	if ds.DB == nil {
		return ds.notOpen("save")
	}
	start := time.Now()
	defer func() { ds.record("save", start, err) }()

	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	if err := ds.DB.WithContext(ctx).Create(d).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save").
			Context("label", d.Label).
			Build()
	}
	return nil
}

// List returns the most recent records, newest first.
func (ds *DataStore) List(ctx context.Context, limit int) (rows []Diagnosis, err error) {
	if ds.DB == nil {
		return nil, ds.notOpen("list")
	}
	start := time.Now()
	defer func() { ds.record("list", start, err) }()

	if limit <= 0 {
		limit = DefaultListLimit
	}
	if err := ds.DB.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "list").
			Build()
	}
	return rows, nil
}

// Count returns the number of stored records.
func (ds *DataStore) Count(ctx context.Context) (n int64, err error) {
	if ds.DB == nil {
		return 0, ds.notOpen("count")
	}
	start := time.Now()
	defer func() { ds.record("count", start, err) }()

	if err := ds.DB.WithContext(ctx).Model(&Diagnosis{}).Count(&n).Error; err != nil {
		return 0, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "count").
			Build()
	}
	return n, nil
}

// Close closes the underlying connection pool.
func (ds *DataStore) Close() error {
	if ds.DB == nil {
		return nil
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "close").
			Build()
	}
	ds.DB = nil
	return sqlDB.Close()
}

// performAutoMigration migrates the schema for the given dialect.
func performAutoMigration(db *gorm.DB, dialect string) error {
	if err := db.AutoMigrate(&Diagnosis{}); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "auto_migrate").
			Context("dialect", dialect).
			Build()
	}
	GetLogger().Debug("schema migrated", logger.String("dialect", dialect))
	return nil
}
