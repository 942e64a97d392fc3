package datastore

import (
	"fmt"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// MySQLStore implements DataStore for MySQL
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

func (store *MySQLStore) dsn() string {
	m := store.Settings.Output.MySQL
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		m.Username, m.Password, m.Host, m.Port, m.Database)
}

// Open connects to MySQL and migrates the schema.
func (store *MySQLStore) Open() error {
	m := store.Settings.Output.MySQL
	if m.Host == "" || m.Database == "" {
		return errors.Newf("mysql host and database are required").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Context("host", m.Host).
			Build()
	}

	db, err := gorm.Open(mysql.Open(store.dsn()), &gorm.Config{Logger: createGormLogger(store.Settings.Debug)})
	if err != nil {
		GetLogger().Error("failed to open MySQL database",
			logger.String("host", m.Host),
			logger.String("port", m.Port),
			logger.String("database", m.Database),
			logger.Error(err))
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "open").
			Context("dialect", "mysql").
			Build()
	}

	store.DB = db
	return performAutoMigration(db, "mysql")
}
