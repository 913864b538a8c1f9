// Package backup provides functionality for backing up application data
package backup

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/graintec/ricenet-go/internal/conf"
	"gopkg.in/yaml.v3"
)

// Source represents a data source that needs to be backed up
type Source interface {
	// Name returns the name of the source
	Name() string
	// Backup performs the backup operation and returns a reader for streaming the backup data
	Backup(ctx context.Context) (io.ReadCloser, error)
	// Validate validates the source configuration
	Validate() error
}

// Target represents a destination where backups are stored
type Target interface {
	// Name returns the name of the target
	Name() string
	// Store stores a backup archive in the target's storage
	Store(ctx context.Context, sourcePath string, metadata *Metadata) error
	// List returns a list of stored backups
	List(ctx context.Context) ([]BackupInfo, error)
	// Delete deletes a backup from storage
	Delete(ctx context.Context, id string) error
	// Validate validates the target configuration
	Validate() error
}

// Metadata contains information about a backup
type Metadata struct {
	Version    int       `json:"version"`              // Version of the metadata format
	ID         string    `json:"id"`                   // Unique identifier for the backup
	Timestamp  time.Time `json:"timestamp"`            // When the backup was created
	Size       int64     `json:"size"`                 // Size of the backup archive in bytes
	Type       string    `json:"type"`                 // Type of backup (e.g., "sqlite")
	Source     string    `json:"source"`               // Source of the backup (e.g., database name)
	IsDaily    bool      `json:"is_daily"`             // Whether this is a daily backup
	ConfigHash string    `json:"config_hash"`          // Hash of the configuration file (for verification)
	AppVersion string    `json:"app_version"`          // Version of the application that created the backup
	Checksum   string    `json:"checksum,omitempty"`   // SHA-256 of the archive
	Compressed bool      `json:"compressed,omitempty"` // Whether the backup is compressed
	RawSize    int64     `json:"raw_size,omitempty"`   // Database size before compression
}

// BackupInfo represents information about a stored backup
type BackupInfo struct {
	Metadata
	Target string // Name of the target storing this backup
}

// BackupStats contains statistics about backups in a target
type BackupStats struct {
	TotalBackups int       // Total number of backups
	DailyBackups int       // Number of daily backups
	OldestBackup time.Time // Timestamp of the oldest backup
	NewestBackup time.Time // Timestamp of the newest backup
	TotalSize    int64     // Total size of all backups in bytes
}

// sanitizeConfig creates a copy of the configuration with sensitive data removed
func sanitizeConfig(config *conf.Settings) *conf.Settings {
	sanitized := *config

	// Notification URLs carry service tokens, database passwords speak for themselves
	sanitized.Output.MySQL.Password = ""
	sanitized.Notify.URLs = nil

	return &sanitized
}

// Manager handles the backup operations
type Manager struct {
	config  *conf.BackupConfig
	sources map[string]Source
	targets map[string]Target
	mu      sync.RWMutex
	logger  *log.Logger
}

// NewManager creates a new backup manager
func NewManager(config *conf.BackupConfig, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}

	return &Manager{
		config:  config,
		sources: make(map[string]Source),
		targets: make(map[string]Target),
		logger:  logger,
	}
}

// RegisterSource registers a backup source
func (m *Manager) RegisterSource(source Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := source.Validate(); err != nil {
		return NewError(ErrValidation, "invalid source configuration", err)
	}

	m.sources[source.Name()] = source
	return nil
}

// RegisterTarget registers a backup target
func (m *Manager) RegisterTarget(target Target) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := target.Validate(); err != nil {
		return NewError(ErrValidation, "invalid target configuration", err)
	}

	m.targets[target.Name()] = target
	return nil
}

// Start starts the backup manager
func (m *Manager) Start() error {
	if !m.config.Enabled {
		m.logger.Println("ℹ️ Backup manager is disabled")
		return nil
	}

	if len(m.sources) == 0 {
		return NewError(ErrValidation, "no backup sources registered", nil)
	}
	if len(m.targets) == 0 {
		return NewError(ErrValidation, "no backup targets registered", nil)
	}

	m.logger.Printf("✅ Backup manager started")
	return nil
}

// RunBackup performs an immediate backup of all sources
func (m *Manager) RunBackup(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Add a timeout for the entire backup operation
	ctx, cancel := context.WithTimeout(ctx, defaultTimeouts.Backup)
	defer cancel()

	m.logger.Println("🔄 Starting backup process...")

	if len(m.targets) == 0 {
		return NewError(ErrValidation, "no backup targets registered, backup cannot proceed", nil)
	}

	// Get current timestamp in UTC
	now := time.Now().UTC()
	isDaily := now.Hour() == 0 && now.Minute() < 15 // Consider it a daily backup if run between 00:00 and 00:15

	var allTempDirs []string
	var errs []error

	// Clean up temporary directories after all operations are complete
	defer func() {
		m.logger.Printf("🧹 Cleaning up %d temporary directories...", len(allTempDirs))
		m.cleanupTempDirectories(allTempDirs)
	}()

	// Process each source
	for sourceName, source := range m.sources {
		select {
		case <-ctx.Done():
			return NewError(ErrCanceled, "backup process cancelled", ctx.Err())
		default:
		}

		m.logger.Printf("🔄 Processing backup source: %s", sourceName)
		tempDirs, err := m.processBackupSource(ctx, sourceName, source, now, isDaily)
		allTempDirs = append(allTempDirs, tempDirs...)
		if err != nil {
			errs = append(errs, err)
			continue
		}
	}

	if len(errs) > 0 {
		return combineErrors(errs)
	}

	if err := m.performBackupCleanup(ctx); err != nil {
		return err
	}

	m.logger.Println("✅ Backup process completed successfully")
	return nil
}

// processBackupSource snapshots a single source into a compressed archive and
// stores it in every registered target.
func (m *Manager) processBackupSource(ctx context.Context, sourceName string, source Source, now time.Time, isDaily bool) ([]string, error) {
	var tempDirs []string

	m.logger.Printf("🔄 Creating backup file for source: %s", sourceName)
	backupReader, err := source.Backup(ctx)
	if err != nil {
		return tempDirs, err
	}
	defer backupReader.Close()

	// Create temporary directory for the archive
	tempDir, err := os.MkdirTemp("", "backup-*")
	if err != nil {
		return tempDirs, NewError(ErrIO, "failed to create temporary directory", err)
	}
	tempDirs = append(tempDirs, tempDir)

	metadata := Metadata{
		Version:    MetadataVersion,
		ID:         fmt.Sprintf("ricenet-backup-%s", now.Format("20060102-150405")),
		Timestamp:  now,
		Type:       sourceName,
		Source:     sourceName,
		IsDaily:    isDaily,
		Compressed: true,
	}
	if settings := conf.Setting(); settings != nil {
		metadata.AppVersion = settings.Version
	}

	archivePath := filepath.Join(tempDir, metadata.ID+".tar.gz")
	m.logger.Printf("🔄 Creating archive file at: %s", archivePath)

	var archiveBuffer bytes.Buffer
	gzipWriter := gzip.NewWriter(&archiveBuffer)
	tarWriter := tar.NewWriter(gzipWriter)

	// The embedded metadata identifies the archive; the copy handed to the
	// targets additionally carries the final size and checksum.
	metadataBytes, err := json.Marshal(metadata)
	if err != nil {
		return tempDirs, NewError(ErrIO, "failed to marshal metadata", err)
	}

	metadataHeader := &tar.Header{
		Name:    "metadata.json",
		Size:    int64(len(metadataBytes)),
		Mode:    0o644,
		ModTime: now,
	}
	if err := tarWriter.WriteHeader(metadataHeader); err != nil {
		return tempDirs, NewError(ErrIO, "failed to write metadata header", err)
	}
	if _, err := tarWriter.Write(metadataBytes); err != nil {
		return tempDirs, NewError(ErrIO, "failed to write metadata", err)
	}

	// Add database file to tar
	dbHeader := &tar.Header{
		Name:    fmt.Sprintf("%s.db", sourceName),
		Mode:    0o644,
		ModTime: now,
	}

	// Buffer the database once to learn its size for the tar header
	var buf bytes.Buffer
	size, err := io.Copy(&buf, backupReader)
	if err != nil {
		return tempDirs, NewError(ErrIO, "failed to read backup data", err)
	}
	dbHeader.Size = size
	metadata.RawSize = size

	if err := tarWriter.WriteHeader(dbHeader); err != nil {
		return tempDirs, NewError(ErrIO, "failed to write database header", err)
	}
	if _, err := io.Copy(tarWriter, &buf); err != nil {
		return tempDirs, NewError(ErrIO, "failed to write database content", err)
	}

	if err := m.addConfigToArchive(tarWriter, &metadata); err != nil {
		return tempDirs, err
	}

	// Close writers in correct order
	if err := tarWriter.Close(); err != nil {
		return tempDirs, NewError(ErrIO, "failed to close tar writer", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return tempDirs, NewError(ErrIO, "failed to close gzip writer", err)
	}

	archiveData := archiveBuffer.Bytes()
	metadata.Size = int64(len(archiveData))
	checksum := sha256.Sum256(archiveData)
	metadata.Checksum = hex.EncodeToString(checksum[:])

	if err := os.WriteFile(archivePath, archiveData, 0o600); err != nil {
		return tempDirs, NewError(ErrIO, "failed to write archive", err)
	}

	if err := m.storeBackupInTargets(ctx, archivePath, &metadata); err != nil {
		return tempDirs, err
	}

	return tempDirs, nil
}

// addConfigToArchive adds configuration to the archive
func (m *Manager) addConfigToArchive(tw *tar.Writer, metadata *Metadata) error {
	settings := conf.Setting()
	if settings == nil {
		return nil
	}
	m.logger.Printf("🔄 Adding configuration to archive...")

	configData, err := yaml.Marshal(sanitizeConfig(settings))
	if err != nil {
		m.logger.Printf("⚠️ Failed to include configuration in backup: %v", err)
		return NewError(ErrIO, "failed to marshal configuration", err)
	}

	header := &tar.Header{
		Name:    "config.yaml",
		Size:    int64(len(configData)),
		Mode:    0o644,
		ModTime: metadata.Timestamp,
	}

	if err := tw.WriteHeader(header); err != nil {
		return NewError(ErrIO, "failed to write config header", err)
	}
	if _, err := tw.Write(configData); err != nil {
		return NewError(ErrIO, "failed to write config data", err)
	}

	hash := sha256.Sum256(configData)
	metadata.ConfigHash = hex.EncodeToString(hash[:])
	return nil
}

// storeBackupInTargets stores the backup in all configured targets
func (m *Manager) storeBackupInTargets(ctx context.Context, archivePath string, metadata *Metadata) error {
	var errs []error
	m.logger.Printf("🔄 Storing backup in %d target(s)...", len(m.targets))
	for _, target := range m.targets {
		select {
		case <-ctx.Done():
			return NewError(ErrCanceled, "backup process cancelled", ctx.Err())
		default:
		}

		m.logger.Printf("🔄 Storing backup in target: %s", target.Name())
		storeCtx, storeCancel := context.WithTimeout(ctx, defaultTimeouts.Store)
		err := target.Store(storeCtx, archivePath, metadata)
		storeCancel()
		if err != nil {
			if storeCtx.Err() != nil {
				m.logger.Printf("❌ Store operation timed out for target %s: %v", target.Name(), err)
				errs = append(errs, NewError(ErrTimeout, fmt.Sprintf("store operation timed out for target %s", target.Name()), err))
			} else {
				m.logger.Printf("❌ Failed to store backup in target %s: %v", target.Name(), err)
				errs = append(errs, NewError(ErrIO, fmt.Sprintf("failed to store backup in target %s", target.Name()), err))
			}
			continue
		}
		m.logger.Printf("✅ Successfully stored backup in target: %s", target.Name())
	}

	if len(errs) > 0 {
		return combineErrors(errs)
	}
	return nil
}

// performBackupCleanup handles the cleanup of old backups
func (m *Manager) performBackupCleanup(ctx context.Context) error {
	m.logger.Printf("Running cleanup of old backups...")
	cleanupCtx, cleanupCancel := context.WithTimeout(ctx, defaultTimeouts.Cleanup)
	defer cleanupCancel()

	err := m.cleanupOldBackups(cleanupCtx)
	if err != nil {
		if cleanupCtx.Err() != nil {
			m.logger.Printf("Warning: Cleanup operation timed out: %v", err)
			return NewError(ErrTimeout, "cleanup operation timed out", err)
		}
		m.logger.Printf("Warning: Failed to clean up old backups: %v", err)
		return NewError(ErrIO, "failed to clean up old backups", err)
	}
	return nil
}

// combineErrors combines multiple errors into a single error
func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	var errMsgs []string
	for _, err := range errs {
		errMsgs = append(errMsgs, err.Error())
	}
	return NewError(ErrUnknown, fmt.Sprintf("multiple errors occurred: %s", strings.Join(errMsgs, "; ")), nil)
}

// parseRetentionAge parses a retention age string (e.g., "30d", "6m", "1y") into a duration
func (m *Manager) parseRetentionAge(age string) (time.Duration, error) {
	if age == "" {
		return 0, nil
	}

	var num int
	var unit string
	if _, err := fmt.Sscanf(age, "%d%s", &num, &unit); err != nil {
		return 0, NewError(ErrValidation, fmt.Sprintf("invalid retention age format: %s", age), err)
	}

	switch unit {
	case "d":
		return time.Duration(num) * 24 * time.Hour, nil
	case "m":
		return time.Duration(num) * 30 * 24 * time.Hour, nil // approximate
	case "y":
		return time.Duration(num) * 365 * 24 * time.Hour, nil // approximate
	default:
		return 0, NewError(ErrValidation, fmt.Sprintf("invalid retention age unit: %s", unit), nil)
	}
}

// groupBackupsByTarget organizes backups by the target storing them
func (m *Manager) groupBackupsByTarget(backups []BackupInfo) map[string][]BackupInfo {
	backupsByTarget := make(map[string][]BackupInfo)
	for i := range backups {
		backupsByTarget[backups[i].Target] = append(backupsByTarget[backups[i].Target], backups[i])
	}
	return backupsByTarget
}

// shouldKeepBackup determines if a backup should be kept based on retention policy.
// The backup at the given index of a newest-first ordering is kept when it falls
// within the minimum count, within the maximum age, or within the maximum count.
func (m *Manager) shouldKeepBackup(index int, backup *BackupInfo, maxAge time.Duration, minBackups, maxBackups int) bool {
	if index < minBackups {
		return true
	}

	if maxAge > 0 && time.Since(backup.Timestamp) < maxAge {
		return true
	}

	if maxBackups > 0 && index < maxBackups {
		return true
	}

	return false
}

// deleteBackupWithTimeout attempts to delete a backup with a timeout
func (m *Manager) deleteBackupWithTimeout(ctx context.Context, backup *BackupInfo, target Target) error {
	deleteCtx, deleteCancel := context.WithTimeout(ctx, defaultTimeouts.Delete)
	defer deleteCancel()

	err := target.Delete(deleteCtx, backup.ID)
	if err != nil {
		if deleteCtx.Err() != nil {
			return NewError(ErrTimeout, fmt.Sprintf("delete operation timed out for backup %s", backup.ID), err)
		}
		return NewError(ErrIO, fmt.Sprintf("failed to delete backup %s", backup.ID), err)
	}

	if m.config.Debug {
		m.logger.Printf("Deleted old backup %s from target %s", backup.ID, target.Name())
	}
	return nil
}

// cleanupOldBackups removes old backups according to retention policy
func (m *Manager) cleanupOldBackups(ctx context.Context) error {
	backups, err := m.listAllBackups(ctx)
	if err != nil {
		return NewError(ErrIO, "failed to list backups", err)
	}

	select {
	case <-ctx.Done():
		return NewError(ErrCanceled, "cleanup operation cancelled", ctx.Err())
	default:
	}

	backupsByTarget := m.groupBackupsByTarget(backups)

	maxAge, err := m.parseRetentionAge(m.config.Retention.MaxAge)
	if err != nil {
		m.logger.Printf("Warning: %v, using no maximum age", err)
		maxAge = 0
	}
	minBackups := m.config.Retention.MinBackups
	maxBackups := m.config.Retention.MaxBackups

	var errs []error
	for targetName, targetBackups := range backupsByTarget {
		select {
		case <-ctx.Done():
			return NewError(ErrCanceled, "cleanup operation cancelled", ctx.Err())
		default:
		}

		target, ok := m.targets[targetName]
		if !ok {
			continue
		}

		// Newest first, so retention indexes count back from the latest backup
		sort.Slice(targetBackups, func(i, j int) bool {
			return targetBackups[i].Timestamp.After(targetBackups[j].Timestamp)
		})

		for i := range targetBackups {
			backup := &targetBackups[i]
			if m.shouldKeepBackup(i, backup, maxAge, minBackups, maxBackups) {
				continue
			}

			if err := m.deleteBackupWithTimeout(ctx, backup, target); err != nil {
				errs = append(errs, err)
				m.logger.Printf("Warning: Failed to delete old backup %s from %s: %v", backup.ID, targetName, err)
			}
		}
	}

	if len(errs) > 0 {
		return combineErrors(errs)
	}

	return nil
}

// ListBackups returns a list of all stored backups across all targets
func (m *Manager) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.listAllBackups(ctx)
}

// listAllBackups collects backups from every target. The caller must hold m.mu.
func (m *Manager) listAllBackups(ctx context.Context) ([]BackupInfo, error) {
	if len(m.targets) == 0 {
		return nil, NewError(ErrValidation, "no backup targets registered", nil)
	}

	var allBackups []BackupInfo
	var errs []error
	for _, target := range m.targets {
		backups, err := target.List(ctx)
		if err != nil {
			m.logger.Printf("Failed to list backups from target %s: %v", target.Name(), err)
			errs = append(errs, NewError(ErrIO, fmt.Sprintf("failed to list backups from target %s", target.Name()), err))
			continue
		}
		allBackups = append(allBackups, backups...)
	}

	if len(errs) > 0 {
		// Partial listings are still useful, a total failure is not
		if len(allBackups) > 0 {
			m.logger.Printf("Warning: Some targets failed to list backups, returning partial results")
			return allBackups, nil
		}
		return nil, combineErrors(errs)
	}

	return allBackups, nil
}

// DeleteBackup deletes a backup from all targets
func (m *Manager) DeleteBackup(ctx context.Context, id string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var lastErr error
	for _, target := range m.targets {
		if err := target.Delete(ctx, id); err != nil {
			lastErr = NewError(ErrIO, fmt.Sprintf("failed to delete backup %s from target %s", id, target.Name()), err)
			m.logger.Printf("Error: %v", lastErr)
		}
	}

	return lastErr
}

// GetBackupStats returns statistics about backups in all targets
func (m *Manager) GetBackupStats(ctx context.Context) (map[string]BackupStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]BackupStats)

	for targetName, target := range m.targets {
		backups, err := target.List(ctx)
		if err != nil {
			m.logger.Printf("Warning: Failed to get backups from target %s: %v", targetName, err)
			continue
		}

		targetStats := BackupStats{}
		if len(backups) > 0 {
			targetStats.OldestBackup = backups[0].Timestamp
			targetStats.NewestBackup = backups[0].Timestamp
		}

		for i := range backups {
			backup := &backups[i]
			targetStats.TotalBackups++
			targetStats.TotalSize += backup.Size

			if backup.IsDaily {
				targetStats.DailyBackups++
			}

			if backup.Timestamp.Before(targetStats.OldestBackup) {
				targetStats.OldestBackup = backup.Timestamp
			}
			if backup.Timestamp.After(targetStats.NewestBackup) {
				targetStats.NewestBackup = backup.Timestamp
			}
		}

		stats[targetName] = targetStats
	}

	return stats, nil
}

// defaultTimeouts defines default operation timeouts
var defaultTimeouts = struct {
	Backup  time.Duration
	Store   time.Duration
	Cleanup time.Duration
	Delete  time.Duration
}{
	Backup:  2 * time.Hour,
	Store:   15 * time.Minute,
	Cleanup: 10 * time.Minute,
	Delete:  2 * time.Minute,
}

// cleanupTempDirectories handles cleanup of temporary directories
func (m *Manager) cleanupTempDirectories(dirs []string) {
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			m.logger.Printf("⚠️ Failed to remove temporary directory %s: %v", dir, err)
		}
	}
}
