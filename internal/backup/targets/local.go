// Package targets provides backup target implementations
package targets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/graintec/ricenet-go/internal/backup"
	"github.com/graintec/ricenet-go/internal/diskmanager"
)

// Constants for file operations
const (
	maxBackupSize    = 10 * 1024 * 1024 * 1024 // 10GB
	dirPermissions   = 0o700                   // rwx------ (owner only)
	filePermissions  = 0o600                   // rw------- (owner only)
	maxPathLength    = 255                     // Maximum path length
	copyBufferSize   = 32 * 1024               // 32KB buffer for file copies
	maxRetries       = 3                       // Maximum number of retries for transient errors
	baseBackoffDelay = 100 * time.Millisecond  // Base delay for exponential backoff
	currentVersion   = 1                       // Current metadata version
)

// MetadataV1 represents version 1 of the backup metadata format
type MetadataV1 struct {
	Version    int       `json:"version"`
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Size       int64     `json:"size"`
	Type       string    `json:"type"`
	Source     string    `json:"source"`
	IsDaily    bool      `json:"is_daily"`
	ConfigHash string    `json:"config_hash"`
	AppVersion string    `json:"app_version"`
	Checksum   string    `json:"checksum,omitempty"`
	Compressed bool      `json:"compressed,omitempty"`
	RawSize    int64     `json:"raw_size,omitempty"`
}

// convertToVersionedMetadata converts backup.Metadata to MetadataV1
func convertToVersionedMetadata(m *backup.Metadata) MetadataV1 {
	return MetadataV1{
		Version:    currentVersion,
		ID:         m.ID,
		Timestamp:  m.Timestamp,
		Size:       m.Size,
		Type:       m.Type,
		Source:     m.Source,
		IsDaily:    m.IsDaily,
		ConfigHash: m.ConfigHash,
		AppVersion: m.AppVersion,
		Checksum:   m.Checksum,
		Compressed: m.Compressed,
		RawSize:    m.RawSize,
	}
}

// convertFromVersionedMetadata converts MetadataV1 to backup.Metadata
func convertFromVersionedMetadata(m *MetadataV1) backup.Metadata {
	return backup.Metadata{
		Version:    m.Version,
		ID:         m.ID,
		Timestamp:  m.Timestamp,
		Size:       m.Size,
		Type:       m.Type,
		Source:     m.Source,
		IsDaily:    m.IsDaily,
		ConfigHash: m.ConfigHash,
		AppVersion: m.AppVersion,
		Checksum:   m.Checksum,
		Compressed: m.Compressed,
		RawSize:    m.RawSize,
	}
}

// atomicWriteFile writes data to a temporary file and then renames it to the target path
func atomicWriteFile(targetPath, tempPattern string, perm os.FileMode, write func(*os.File) error) error {
	// Create temporary file in the same directory as the target
	dir := filepath.Dir(targetPath)
	tempFile, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if err := tempFile.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}

	if err := write(tempFile); err != nil {
		return err
	}

	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	success = true
	return nil
}

// LocalTarget implements the backup.Target interface for local filesystem storage
type LocalTarget struct {
	path   string
	debug  bool
	logger backup.Logger
}

// LocalTargetConfig holds configuration for the local filesystem target
type LocalTargetConfig struct {
	Path  string
	Debug bool
}

// isTransientError determines if an error is likely transient
func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if os.IsTimeout(err) {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "resource temporarily unavailable") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "broken pipe")
}

// backoffDuration calculates exponential backoff duration
func backoffDuration(attempt int) time.Duration {
	return baseBackoffDelay * time.Duration(1<<uint(attempt))
}

// withRetry executes an operation with retry logic for transient errors
func (t *LocalTarget) withRetry(op func() error) error {
	var lastErr error
	for i := range maxRetries {
		if err := op(); err == nil {
			return nil
		} else if !isTransientError(err) {
			return err
		} else {
			lastErr = err
			if t.debug {
				t.logger.Printf("Retrying operation after error: %v (attempt %d/%d)", err, i+1, maxRetries)
			}
		}
		time.Sleep(backoffDuration(i))
	}
	return backup.NewError(backup.ErrIO, "operation failed after retries", lastErr)
}

// copyFile performs a buffered file copy operation
func copyFile(dst, src *os.File) error {
	buf := make([]byte, copyBufferSize)
	_, err := io.CopyBuffer(dst, src, buf)
	return err
}

// validatePath performs path validation for the backup directory
func validatePath(path string) error {
	if path == "" {
		return backup.NewError(backup.ErrValidation, "path is required for local target", nil)
	}

	if len(path) > maxPathLength {
		return backup.NewError(backup.ErrValidation,
			fmt.Sprintf("path length exceeds maximum allowed (%d characters)", maxPathLength),
			nil)
	}

	cleanPath := filepath.Clean(path)

	// Reject directory traversal attempts
	if strings.Contains(cleanPath, "..") {
		return backup.NewError(backup.ErrValidation, "path must not contain directory traversal sequences", nil)
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return backup.NewError(backup.ErrValidation, "failed to resolve absolute path", err)
	}

	// Refuse symlinked backup roots
	fi, err := os.Lstat(absPath)
	if err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
		return backup.NewError(backup.ErrValidation, "symlinks are not allowed in backup path", nil)
	}

	return nil
}

// NewLocalTarget creates a new local filesystem target
func NewLocalTarget(config LocalTargetConfig, logger backup.Logger) (*LocalTarget, error) {
	if err := validatePath(config.Path); err != nil {
		return nil, err
	}
	cleanPath := filepath.Clean(config.Path)

	if logger == nil {
		logger = backup.DefaultLogger()
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return nil, backup.NewError(backup.ErrValidation, "failed to resolve absolute path", err)
	}

	// Create backup directory if it doesn't exist with restrictive permissions
	if err := os.MkdirAll(absPath, dirPermissions); err != nil {
		return nil, backup.NewError(backup.ErrIO, "failed to create backup directory", err)
	}

	if err := os.Chmod(absPath, dirPermissions); err != nil {
		return nil, backup.NewError(backup.ErrIO, "failed to set directory permissions", err)
	}

	return &LocalTarget{
		path:   absPath,
		debug:  config.Debug,
		logger: logger,
	}, nil
}

// Name returns the name of this target
func (t *LocalTarget) Name() string {
	return "local"
}

// Store stores a backup archive in the local filesystem. Each backup lives in
// a directory named after its ID next to a metadata.json sidecar.
func (t *LocalTarget) Store(ctx context.Context, sourcePath string, metadata *backup.Metadata) error {
	if err := ctx.Err(); err != nil {
		return backup.NewError(backup.ErrCanceled, "backup operation cancelled", err)
	}

	if t.debug {
		t.logger.Printf("Storing backup from %s to local target", sourcePath)
	}

	srcInfo, err := os.Stat(sourcePath)
	if err != nil {
		return backup.NewError(backup.ErrIO, "failed to stat source file", err)
	}

	if srcInfo.Size() > maxBackupSize {
		return backup.NewError(backup.ErrValidation,
			fmt.Sprintf("backup file too large: %d bytes (max %d bytes)", srcInfo.Size(), maxBackupSize),
			nil)
	}

	availableBytes, err := diskmanager.GetAvailableSpace(t.path)
	if err != nil {
		return backup.NewError(backup.ErrMedia, "failed to check available space", err)
	}

	// File size + 10% headroom
	requiredSpace := uint64(float64(srcInfo.Size()) * 1.1)
	if availableBytes < requiredSpace {
		return backup.NewError(backup.ErrInsufficientSpace,
			fmt.Sprintf("insufficient disk space: need %d bytes, have %d bytes", requiredSpace, availableBytes),
			nil)
	}

	backupDir := filepath.Join(t.path, metadata.ID)
	if err := os.MkdirAll(backupDir, dirPermissions); err != nil {
		return backup.NewError(backup.ErrIO, "failed to create backup directory", err)
	}

	success := false
	defer func() {
		if !success {
			if err := os.RemoveAll(backupDir); err != nil {
				t.logger.Printf("Warning: failed to cleanup backup directory after error: %v", err)
			}
		}
	}()

	// Copy the backup file with retries and atomic operations
	dstPath := filepath.Join(backupDir, filepath.Base(sourcePath))
	err = t.withRetry(func() error {
		return atomicWriteFile(dstPath, "backup-*.tmp", filePermissions, func(tempFile *os.File) error {
			srcFile, err := os.Open(sourcePath)
			if err != nil {
				return backup.NewError(backup.ErrIO, "failed to open source file", err)
			}
			defer srcFile.Close()

			copyDone := make(chan error, 1)
			go func() {
				copyDone <- copyFile(tempFile, srcFile)
			}()

			select {
			case <-ctx.Done():
				return backup.NewError(backup.ErrCanceled, "backup operation cancelled during file copy", ctx.Err())
			case err := <-copyDone:
				if err != nil {
					return backup.NewError(backup.ErrIO, "failed to copy backup file", err)
				}
			}

			return nil
		})
	})
	if err != nil {
		return err
	}

	versionedMetadata := convertToVersionedMetadata(metadata)

	metadataPath := filepath.Join(backupDir, "metadata.json")
	err = t.withRetry(func() error {
		return atomicWriteFile(metadataPath, "metadata-*.tmp", filePermissions, func(tempFile *os.File) error {
			encoder := json.NewEncoder(tempFile)
			encoder.SetIndent("", "  ")
			return encoder.Encode(versionedMetadata)
		})
	})
	if err != nil {
		return err
	}

	if err := t.verifyBackup(ctx, dstPath, srcInfo.Size()); err != nil {
		return err
	}

	success = true
	if t.debug {
		t.logger.Printf("Successfully stored backup in %s", backupDir)
	}

	return nil
}

// verifyBackup verifies the integrity of the stored backup
func (t *LocalTarget) verifyBackup(ctx context.Context, backupPath string, expectedSize int64) error {
	if err := ctx.Err(); err != nil {
		return backup.NewError(backup.ErrCanceled, "backup verification cancelled", err)
	}

	info, err := os.Stat(backupPath)
	if err != nil {
		return backup.NewError(backup.ErrCorruption, "failed to verify backup file", err)
	}

	if info.Size() != expectedSize {
		return backup.NewError(backup.ErrCorruption,
			fmt.Sprintf("backup file size mismatch: expected %d, got %d", expectedSize, info.Size()),
			nil)
	}

	return nil
}

// List returns a list of available backups with versioned metadata support
func (t *LocalTarget) List(ctx context.Context) ([]backup.BackupInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, backup.NewError(backup.ErrCanceled, "list operation cancelled", err)
	}

	if t.debug {
		t.logger.Printf("Listing backups in local target")
	}

	entries, err := os.ReadDir(t.path)
	if err != nil {
		return nil, backup.NewError(backup.ErrIO, "failed to read backup directory", err)
	}

	var backups []backup.BackupInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metadataPath := filepath.Join(t.path, entry.Name(), "metadata.json")
		metadataFile, err := os.Open(metadataPath)
		if err != nil {
			t.logger.Printf("Warning: skipping backup %s: %v", entry.Name(), err)
			continue
		}

		var versionedMetadata MetadataV1
		decoder := json.NewDecoder(metadataFile)
		if err := decoder.Decode(&versionedMetadata); err != nil {
			metadataFile.Close()
			t.logger.Printf("Warning: invalid metadata in backup %s: %v", entry.Name(), err)
			continue
		}
		metadataFile.Close()

		backups = append(backups, backup.BackupInfo{
			Metadata: convertFromVersionedMetadata(&versionedMetadata),
			Target:   t.Name(),
		})
	}

	// Sort backups by timestamp (newest first)
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// Delete removes a backup
func (t *LocalTarget) Delete(ctx context.Context, backupID string) error {
	if err := ctx.Err(); err != nil {
		return backup.NewError(backup.ErrCanceled, "delete operation cancelled", err)
	}

	if t.debug {
		t.logger.Printf("Deleting backup %s from local target", backupID)
	}

	// Backup IDs double as directory names, refuse anything path-like
	if strings.ContainsAny(backupID, "/\\") || strings.Contains(backupID, "..") {
		return backup.NewError(backup.ErrValidation, "invalid backup ID", nil)
	}

	backupPath := filepath.Join(t.path, backupID)
	if err := os.RemoveAll(backupPath); err != nil {
		return backup.NewError(backup.ErrIO, "failed to delete backup", err)
	}

	return nil
}

// Validate checks if the target configuration is valid
func (t *LocalTarget) Validate() error {
	if !filepath.IsAbs(t.path) {
		absPath, err := filepath.Abs(t.path)
		if err != nil {
			return backup.NewError(backup.ErrValidation, "failed to resolve absolute path", err)
		}
		t.path = absPath
	}

	if info, err := os.Stat(t.path); err != nil {
		if os.IsNotExist(err) {
			return backup.NewError(backup.ErrValidation, "backup path does not exist", err)
		}
		return backup.NewError(backup.ErrValidation, "failed to check backup path", err)
	} else if !info.IsDir() {
		return backup.NewError(backup.ErrValidation, "backup path is not a directory", nil)
	}

	// Check if path is writable
	tmpFile := filepath.Join(t.path, ".write_test")
	f, err := os.Create(tmpFile)
	if err != nil {
		return backup.NewError(backup.ErrValidation, "backup path is not writable", err)
	}
	f.Close()
	os.Remove(tmpFile)

	availableBytes, err := diskmanager.GetAvailableSpace(t.path)
	if err != nil {
		return backup.NewError(backup.ErrMedia, "failed to check disk space", err)
	}

	availableGB := float64(availableBytes) / (1024 * 1024 * 1024)

	// Require at least 1GB free
	if availableGB < 1.0 {
		return backup.NewError(backup.ErrInsufficientSpace, fmt.Sprintf("insufficient disk space: %.1f GB available, minimum 1 GB required", availableGB), nil)
	}

	if t.debug {
		t.logger.Printf("Available disk space at backup location: %.1f GB", availableGB)
	}

	return nil
}
