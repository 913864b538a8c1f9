// Package sources provides backup source implementations
package sources

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/graintec/ricenet-go/internal/backup"
	"github.com/graintec/ricenet-go/internal/conf"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteSource implements the backup.Source interface for the SQLite scan database
type SQLiteSource struct {
	config *conf.Settings
	logger backup.Logger
}

// NewSQLiteSource creates a new SQLite backup source
func NewSQLiteSource(config *conf.Settings) *SQLiteSource {
	return &SQLiteSource{
		config: config,
		logger: backup.DefaultLogger(),
	}
}

// Name returns the name of this source
func (s *SQLiteSource) Name() string {
	return "sqlite"
}

// snapshotReader streams a temporary database snapshot and removes it on Close.
type snapshotReader struct {
	*os.File
	tempDir string
}

func (r *snapshotReader) Close() error {
	err := r.File.Close()
	if rmErr := os.RemoveAll(r.tempDir); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

// Backup snapshots the SQLite database file and returns a reader over the copy.
func (s *SQLiteSource) Backup(ctx context.Context) (io.ReadCloser, error) {
	if !s.config.Output.SQLite.Enabled {
		return nil, fmt.Errorf("sqlite is not enabled")
	}

	dbPath := s.config.Output.SQLite.Path
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite path is not configured")
	}

	s.logger.Printf("SQLite backup starting for database: %s", dbPath)

	if !filepath.IsAbs(dbPath) {
		absPath, err := filepath.Abs(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute database path: %w", err)
		}
		dbPath = absPath
	}

	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("database file not accessible: %w", err)
	}

	// Open the source database read-only to confirm it is a usable SQLite file
	// before copying bytes around.
	if err := s.verifyDatabase(ctx, dbPath); err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "sqlite-backup-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	timestamp := time.Now().UTC().Format("20060102150405")
	snapshotPath := filepath.Join(tempDir, fmt.Sprintf("ricenet-sqlite-%s.db", timestamp))

	if err := s.copyDatabase(dbPath, snapshotPath); err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	f, err := os.Open(snapshotPath)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}

	s.logger.Printf("SQLite backup snapshot created at %s", snapshotPath)
	return &snapshotReader{File: f, tempDir: tempDir}, nil
}

// verifyDatabase opens the database read-only and pings it.
func (s *SQLiteSource) verifyDatabase(ctx context.Context, dbPath string) error {
	db, err := gorm.Open(sqlite.Open(dbPath+"?mode=ro"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database connection: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// copyDatabase copies the database file to the snapshot path and syncs it.
func (s *SQLiteSource) copyDatabase(dbPath, snapshotPath string) error {
	srcFile, err := os.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open source database file: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dstFile.Close()

	written, err := io.Copy(dstFile, srcFile)
	if err != nil {
		return fmt.Errorf("failed to copy database: %w", err)
	}

	if err := dstFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync backup file: %w", err)
	}

	s.logger.Printf("Copied %d bytes of database", written)
	return nil
}

// Validate checks if the source configuration is valid
func (s *SQLiteSource) Validate() error {
	if !s.config.Output.SQLite.Enabled {
		return fmt.Errorf("sqlite is not enabled")
	}

	dbPath := s.config.Output.SQLite.Path
	if dbPath == "" {
		return fmt.Errorf("sqlite path is not configured")
	}

	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("source database does not exist: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database connection: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}
