package datastore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/graintec/ricenet-go/internal/conf"
)

// MySQLStore implements DataStore for MySQL
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the MySQL database connection
func (store *MySQLStore) Open() error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		store.Settings.Output.MySQL.Username, store.Settings.Output.MySQL.Password,
		store.Settings.Output.MySQL.Host, store.Settings.Output.MySQL.Port,
		store.Settings.Output.MySQL.Database)

	// Create a new GORM logger
	newLogger := createGormLogger()

	// Open the MySQL database
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		getLogger().Error("Failed to open MySQL database",
			"host", store.Settings.Output.MySQL.Host,
			"port", store.Settings.Output.MySQL.Port,
			"database", store.Settings.Output.MySQL.Database,
			"error", err)
		return fmt.Errorf("failed to open MySQL database: %w", err)
	}

	store.DB = db
	store.MaxScans = store.Settings.Retention.MaxScans

	connectionInfo := fmt.Sprintf("%s@%s:%s/%s",
		store.Settings.Output.MySQL.Username, store.Settings.Output.MySQL.Host,
		store.Settings.Output.MySQL.Port, store.Settings.Output.MySQL.Database)
	return performAutoMigration(db, store.Settings.Debug, "MySQL", connectionInfo)
}

// Close MySQL database connections
func (store *MySQLStore) Close() error {
	if store.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	sqlDB, err := store.DB.DB()
	if err != nil {
		getLogger().Error("Failed to retrieve generic DB object", "error", err)
		return err
	}

	if err := sqlDB.Close(); err != nil {
		getLogger().Error("Failed to close MySQL database", "error", err)
		return err
	}

	return nil
}
