package targets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/graintec/ricenet-go/internal/backup"
	"github.com/jlaffaye/ftp"
)

// FTP-specific constants
const (
	defaultFTPPort     = 21
	defaultFTPTimeout  = 30 * time.Second
	defaultFTPConns    = 2
	defaultFTPRetries  = 3
	ftpTempFilePrefix  = "ftp-upload-"
	ftpMetadataFileExt = ".meta"
)

// FTPTarget implements the backup.Target interface for FTP storage
type FTPTarget struct {
	config     FTPTargetConfig
	logger     backup.Logger
	connPool   chan *ftp.ServerConn
	mu         sync.Mutex // Protects connPool operations
	initialDir string     // Initial working directory after login
}

// FTPTargetConfig holds configuration for the FTP target
type FTPTargetConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	BasePath     string
	Timeout      time.Duration
	Debug        bool
	MaxConns     int
	MaxRetries   int
	RetryBackoff time.Duration
}

// NewFTPTarget creates a new FTP target with the given configuration
func NewFTPTarget(config *FTPTargetConfig, logger backup.Logger) (*FTPTarget, error) {
	if config.Host == "" {
		return nil, backup.NewError(backup.ErrConfig, "ftp: host is required", nil)
	}
	if config.BasePath == "" {
		return nil, backup.NewError(backup.ErrConfig, "ftp: base path is required", nil)
	}

	if config.Port == 0 {
		config.Port = defaultFTPPort
	}
	if config.Timeout == 0 {
		config.Timeout = defaultFTPTimeout
	}
	config.BasePath = strings.TrimRight(config.BasePath, "/")
	if config.MaxConns == 0 {
		config.MaxConns = defaultFTPConns
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = defaultFTPRetries
	}
	if config.RetryBackoff == 0 {
		config.RetryBackoff = time.Second
	}

	if logger == nil {
		logger = backup.DefaultLogger()
	}

	return &FTPTarget{
		config:   *config,
		logger:   logger,
		connPool: make(chan *ftp.ServerConn, config.MaxConns),
	}, nil
}

// NewFTPTargetFromMap creates a new FTP target from a settings map
func NewFTPTargetFromMap(settings map[string]any) (*FTPTarget, error) {
	config := FTPTargetConfig{}

	host, ok := settings["host"].(string)
	if !ok {
		return nil, backup.NewError(backup.ErrConfig, "ftp: host is required", nil)
	}
	config.Host = host

	if port, ok := settings["port"].(int); ok {
		config.Port = port
	}
	if username, ok := settings["username"].(string); ok {
		config.Username = username
	}
	if password, ok := settings["password"].(string); ok {
		config.Password = password
	}
	if basePath, ok := settings["path"].(string); ok {
		config.BasePath = basePath
	}
	if timeout, ok := settings["timeout"].(string); ok {
		duration, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, backup.NewError(backup.ErrValidation, "ftp: invalid timeout format", err)
		}
		config.Timeout = duration
	}
	if debug, ok := settings["debug"].(bool); ok {
		config.Debug = debug
	}

	return NewFTPTarget(&config, nil)
}

// Name returns the name of this target
func (t *FTPTarget) Name() string {
	return "ftp"
}

// getConnection gets a connection from the pool or creates a new one
func (t *FTPTarget) getConnection(ctx context.Context) (*ftp.ServerConn, error) {
	select {
	case conn := <-t.connPool:
		if t.isConnectionAlive(conn) {
			return conn, nil
		}
		_ = conn.Quit()
	default:
		// Pool is empty, create a new connection
	}

	return t.connect(ctx)
}

// returnConnection returns a connection to the pool or closes it if the pool is full
func (t *FTPTarget) returnConnection(conn *ftp.ServerConn) {
	if conn == nil {
		return
	}

	select {
	case t.connPool <- conn:
	default:
		if err := conn.Quit(); err != nil {
			t.logger.Printf("Warning: failed to close FTP connection: %v", err)
		}
	}
}

// isConnectionAlive checks if a connection is still usable
func (t *FTPTarget) isConnectionAlive(conn *ftp.ServerConn) bool {
	if conn == nil {
		return false
	}
	return conn.NoOp() == nil
}

// isTransientFTPError checks if an error is likely temporary
func isTransientFTPError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "421") || // Service not available
		strings.Contains(errStr, "425") || // Can't open data connection
		strings.Contains(errStr, "426") // Connection closed, transfer aborted
}

// withRetry executes an operation with retry logic
func (t *FTPTarget) withRetry(ctx context.Context, op func(*ftp.ServerConn) error) error {
	var lastErr error
	for attempt := range t.config.MaxRetries {
		select {
		case <-ctx.Done():
			return backup.NewError(backup.ErrCanceled, "ftp: operation canceled", ctx.Err())
		default:
		}

		conn, err := t.getConnection(ctx)
		if err != nil {
			lastErr = err
			if !isTransientFTPError(err) {
				return err
			}
			time.Sleep(t.config.RetryBackoff * time.Duration(attempt+1))
			continue
		}

		if err = op(conn); err == nil {
			t.returnConnection(conn)
			return nil
		}

		lastErr = err
		_ = conn.Quit() // Close failed connection

		if !isTransientFTPError(err) {
			return err
		}

		if t.config.Debug {
			t.logger.Printf("FTP: Retrying operation after error: %v (attempt %d/%d)", err, attempt+1, t.config.MaxRetries)
		}
		time.Sleep(t.config.RetryBackoff * time.Duration(attempt+1))
	}

	return backup.NewError(backup.ErrIO, "ftp: operation failed after retries", lastErr)
}

// connect establishes a connection to the FTP server with context support
func (t *FTPTarget) connect(ctx context.Context) (*ftp.ServerConn, error) {
	connChan := make(chan *ftp.ServerConn, 1)
	errChan := make(chan error, 1)

	go func() {
		addr := fmt.Sprintf("%s:%d", t.config.Host, t.config.Port)
		conn, err := ftp.Dial(addr, ftp.DialWithTimeout(t.config.Timeout))
		if err != nil {
			errChan <- backup.NewError(backup.ErrIO, "ftp: connection failed", err)
			return
		}

		if t.config.Username != "" {
			if err := conn.Login(t.config.Username, t.config.Password); err != nil {
				if quitErr := conn.Quit(); quitErr != nil {
					t.logger.Printf("Warning: failed to quit FTP connection after login error: %v", quitErr)
				}
				errChan <- backup.NewError(backup.ErrValidation, "ftp: login failed", err)
				return
			}
		}

		pwd, err := conn.CurrentDir()
		if err != nil {
			if quitErr := conn.Quit(); quitErr != nil {
				t.logger.Printf("Warning: failed to quit FTP connection after pwd error: %v", quitErr)
			}
			errChan <- backup.NewError(backup.ErrIO, "ftp: failed to get working directory", err)
			return
		}
		t.initialDir = pwd

		connChan <- conn
	}()

	select {
	case <-ctx.Done():
		return nil, backup.NewError(backup.ErrCanceled, "ftp: connection attempt canceled", ctx.Err())
	case err := <-errChan:
		return nil, err
	case conn := <-connChan:
		return conn, nil
	}
}

// atomicUpload uploads to a temporary name and renames to the final destination
func (t *FTPTarget) atomicUpload(ctx context.Context, conn *ftp.ServerConn, localPath, remotePath string) error {
	tempName := path.Join(path.Dir(remotePath), fmt.Sprintf("%s%d-%d", ftpTempFilePrefix, time.Now().UnixNano(), os.Getpid()))

	if err := t.uploadFile(ctx, conn, localPath, tempName); err != nil {
		_ = conn.Delete(tempName)
		return err
	}

	if err := conn.Rename(tempName, remotePath); err != nil {
		_ = conn.Delete(tempName)
		return backup.NewError(backup.ErrIO, "ftp: failed to rename temporary file", err)
	}

	return nil
}

// uploadFile handles the actual file upload
func (t *FTPTarget) uploadFile(ctx context.Context, conn *ftp.ServerConn, localPath, remotePath string) error {
	select {
	case <-ctx.Done():
		return backup.NewError(backup.ErrCanceled, "ftp: upload operation canceled", ctx.Err())
	default:
	}

	file, err := os.Open(localPath)
	if err != nil {
		return backup.NewError(backup.ErrIO, fmt.Sprintf("ftp: failed to open local file: %s", localPath), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			t.logger.Printf("ftp: failed to close file %s: %v", localPath, err)
		}
	}()

	if err := conn.Stor(remotePath, file); err != nil {
		if t.config.Debug {
			t.logger.Printf("FTP: Failed to store file %s: %v", remotePath, err)
		}
		return backup.NewError(backup.ErrIO, "ftp: failed to store file", err)
	}

	return nil
}

// Store implements the backup.Target interface
func (t *FTPTarget) Store(ctx context.Context, sourcePath string, metadata *backup.Metadata) error {
	if t.config.Debug {
		t.logger.Printf("🔄 FTP: Storing backup %s to %s", filepath.Base(sourcePath), t.config.Host)
	}

	metadataBytes, err := json.Marshal(convertToVersionedMetadata(metadata))
	if err != nil {
		return backup.NewError(backup.ErrIO, "ftp: failed to marshal metadata", err)
	}

	return t.withRetry(ctx, func(conn *ftp.ServerConn) error {
		if err := t.createDirectory(conn, t.config.BasePath); err != nil {
			return err
		}

		// Store the backup file atomically
		backupPath := path.Join(t.config.BasePath, filepath.Base(sourcePath))
		if err := t.atomicUpload(ctx, conn, sourcePath, backupPath); err != nil {
			return err
		}

		// Stage the metadata sidecar locally, then upload it next to the archive
		metadataFile, err := os.CreateTemp("", "ftp-metadata-*")
		if err != nil {
			return backup.NewError(backup.ErrIO, "ftp: failed to create metadata temp file", err)
		}
		defer os.Remove(metadataFile.Name())

		if _, err := metadataFile.Write(metadataBytes); err != nil {
			metadataFile.Close()
			return backup.NewError(backup.ErrIO, "ftp: failed to write metadata temp file", err)
		}
		if err := metadataFile.Close(); err != nil {
			return backup.NewError(backup.ErrIO, "ftp: failed to close metadata temp file", err)
		}

		metadataPath := backupPath + ftpMetadataFileExt
		if err := t.atomicUpload(ctx, conn, metadataFile.Name(), metadataPath); err != nil {
			return backup.NewError(backup.ErrIO, "ftp: failed to store metadata", err)
		}

		if t.config.Debug {
			t.logger.Printf("✅ FTP: Successfully stored backup %s with metadata", filepath.Base(sourcePath))
		}

		return nil
	})
}

// List implements the backup.Target interface
func (t *FTPTarget) List(ctx context.Context) ([]backup.BackupInfo, error) {
	if t.config.Debug {
		t.logger.Printf("🔄 FTP: Listing backups from %s", t.config.Host)
	}

	var backups []backup.BackupInfo
	err := t.withRetry(ctx, func(conn *ftp.ServerConn) error {
		entries, err := conn.List(t.config.BasePath)
		if err != nil {
			if strings.Contains(err.Error(), "No such file or directory") {
				return nil
			}
			return backup.NewError(backup.ErrIO, "ftp: failed to list backups", err)
		}

		for _, entry := range entries {
			if entry.Type != ftp.EntryTypeFile ||
				strings.HasPrefix(entry.Name, ftpTempFilePrefix) ||
				strings.HasSuffix(entry.Name, ftpMetadataFileExt) {
				continue
			}

			backups = append(backups, backup.BackupInfo{
				Metadata: backup.Metadata{
					ID:        strings.TrimSuffix(entry.Name, backup.ArchiveExt),
					Timestamp: entry.Time,
					Size:      int64(entry.Size), // #nosec G115 -- file size conversion safe for FTP listing
				},
				Target: t.Name(),
			})

			select {
			case <-ctx.Done():
				return backup.NewError(backup.ErrCanceled, "ftp: listing operation canceled", ctx.Err())
			default:
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return backups, nil
}

// Delete implements the backup.Target interface
func (t *FTPTarget) Delete(ctx context.Context, id string) error {
	if t.config.Debug {
		t.logger.Printf("🔄 FTP: Deleting backup %s from %s", id, t.config.Host)
	}

	return t.withRetry(ctx, func(conn *ftp.ServerConn) error {
		backupPath := path.Join(t.config.BasePath, id+backup.ArchiveExt)
		if err := conn.Delete(backupPath); err != nil {
			return backup.NewError(backup.ErrIO, "ftp: failed to delete backup", err)
		}

		// The metadata sidecar is best effort
		if err := conn.Delete(backupPath + ftpMetadataFileExt); err != nil && t.config.Debug {
			t.logger.Printf("FTP: Failed to delete metadata for %s: %v", id, err)
		}

		return nil
	})
}

// Validate performs validation of the FTP target
func (t *FTPTarget) Validate() error {
	ctx, cancel := context.WithTimeout(context.Background(), t.config.Timeout)
	defer cancel()

	return t.withRetry(ctx, func(conn *ftp.ServerConn) error {
		if err := t.createDirectory(conn, t.config.BasePath); err != nil {
			return backup.NewError(backup.ErrValidation, "ftp: failed to create base backup directory", err)
		}

		if err := conn.ChangeDir(t.config.BasePath); err != nil {
			return backup.NewError(backup.ErrValidation, "ftp: cannot access backup directory", err)
		}

		if err := t.testFileUpload(ctx, conn); err != nil {
			return err
		}

		if err := conn.ChangeDir(t.initialDir); err != nil && t.config.Debug {
			t.logger.Printf("⚠️ FTP: Failed to change back to initial directory %s: %v", t.initialDir, err)
		}

		return nil
	})
}

// testFileUpload uploads and removes a small probe file
func (t *FTPTarget) testFileUpload(ctx context.Context, conn *ftp.ServerConn) error {
	tempFile, err := os.CreateTemp("", "ftp-test-*")
	if err != nil {
		return backup.NewError(backup.ErrIO, "ftp: failed to create temporary test file", err)
	}
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.Write([]byte("test")); err != nil {
		tempFile.Close()
		return backup.NewError(backup.ErrIO, "ftp: failed to write test data", err)
	}
	if err := tempFile.Close(); err != nil {
		return backup.NewError(backup.ErrIO, "ftp: failed to close test file", err)
	}

	if err := t.uploadFile(ctx, conn, tempFile.Name(), ".write_test"); err != nil {
		return backup.NewError(backup.ErrValidation, "ftp: failed to upload test file", err)
	}

	if err := conn.Delete(".write_test"); err != nil && t.config.Debug {
		t.logger.Printf("⚠️ FTP: Failed to delete test file: %v", err)
	}

	return nil
}

// createDirectory ensures the target directory exists on the FTP server
func (t *FTPTarget) createDirectory(conn *ftp.ServerConn, dirPath string) error {
	if dirPath == "" {
		return nil
	}

	currentDir, err := conn.CurrentDir()
	if err != nil {
		return backup.NewError(backup.ErrIO, "ftp: failed to get current directory", err)
	}

	// If we can change into it, it already exists
	if err := conn.ChangeDir(dirPath); err == nil {
		_ = conn.ChangeDir(currentDir)
		return nil
	}

	err = conn.MakeDir(dirPath)
	if err != nil {
		errStr := strings.ToLower(err.Error())
		if strings.Contains(errStr, "file exists") ||
			strings.Contains(errStr, "already exists") ||
			strings.Contains(errStr, "directory exists") ||
			strings.Contains(errStr, "550") { // Common FTP reply for existing directory
			return nil
		}
		return backup.NewError(backup.ErrIO, fmt.Sprintf("ftp: failed to create directory %s", dirPath), err)
	}

	return nil
}

// Close closes all connections in the pool
func (t *FTPTarget) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var lastErr error
	for {
		select {
		case conn := <-t.connPool:
			if err := conn.Quit(); err != nil {
				lastErr = err
				t.logger.Printf("Warning: failed to close FTP connection: %v", err)
			}
		default:
			return lastErr
		}
	}
}
