package datastore

import (
	"os"
	"path/filepath"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteStore implements DataStore for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// Open creates the database directory if needed, opens the file and
// migrates the schema. The special path ":memory:" opens an in-memory
// database.
func (store *SQLiteStore) Open() error {
	path := store.Settings.Output.SQLite.Path
	if path == "" {
		return errors.Newf("sqlite path is empty").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.New(err).
					Component("datastore").
					Category(errors.CategoryFileIO).
					Context("operation", "create_directory").
					Context("path", dir).
					Build()
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: createGormLogger(store.Settings.Debug)})
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "open").
			Context("dialect", "sqlite").
			Build()
	}

	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	store.DB = db
	GetLogger().Info("sqlite history store opened", logger.String("path", path))
	return performAutoMigration(db, "sqlite")
}
