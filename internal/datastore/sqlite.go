package datastore

import (
	"fmt"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/graintec/ricenet-go/internal/conf"
)

// SQLiteStore implements DataStore for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the SQLite database connection
func (store *SQLiteStore) Open() error {
	dir, fileName := filepath.Split(store.Settings.Output.SQLite.Path)
	basePath := conf.GetBasePath(dir)
	absoluteFilePath := filepath.Join(basePath, fileName)

	// Create a new GORM logger
	newLogger := createGormLogger()

	// Open the SQLite database
	db, err := gorm.Open(sqlite.Open(absoluteFilePath), &gorm.Config{Logger: newLogger})
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store.DB = db
	store.MaxScans = store.Settings.Retention.MaxScans
	return performAutoMigration(db, store.Settings.Debug, "SQLite", absoluteFilePath)
}

func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}

	sqlDB, err := store.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve generic DB object: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close SQLite database: %w", err)
	}
	return nil
}
