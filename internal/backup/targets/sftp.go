package targets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/graintec/ricenet-go/internal/backup"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SFTPTarget implements the backup.Target interface for SFTP storage
type SFTPTarget struct {
	host     string
	port     int
	username string
	password string
	keyFile  string
	basePath string
	timeout  time.Duration
	debug    bool
	logger   backup.Logger
}

// NewSFTPTarget creates a new SFTP target with the given configuration
func NewSFTPTarget(settings map[string]any) (*SFTPTarget, error) {
	target := &SFTPTarget{logger: backup.DefaultLogger()}

	host, ok := settings["host"].(string)
	if !ok {
		return nil, backup.NewError(backup.ErrConfig, "sftp: host is required", nil)
	}
	target.host = host

	if port, ok := settings["port"].(int); ok {
		target.port = port
	} else {
		target.port = 22 // Default SFTP port
	}

	if username, ok := settings["username"].(string); ok {
		target.username = username
	}

	if password, ok := settings["password"].(string); ok {
		target.password = password
	}

	if keyFile, ok := settings["key_file"].(string); ok {
		target.keyFile = keyFile
	}

	if basePath, ok := settings["path"].(string); ok {
		target.basePath = strings.TrimRight(basePath, "/")
	} else {
		target.basePath = "backups"
	}

	if timeout, ok := settings["timeout"].(string); ok {
		duration, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, backup.NewError(backup.ErrValidation, "sftp: invalid timeout format", err)
		}
		target.timeout = duration
	} else {
		target.timeout = 30 * time.Second // Default timeout
	}

	if debug, ok := settings["debug"].(bool); ok {
		target.debug = debug
	}

	return target, nil
}

// Name returns the name of this target
func (t *SFTPTarget) Name() string {
	return "sftp"
}

// connect establishes an SFTP connection
func (t *SFTPTarget) connect(ctx context.Context) (*sftp.Client, error) {
	type connResult struct {
		client *sftp.Client
		err    error
	}
	resultChan := make(chan connResult, 1)

	go func() {
		config := &ssh.ClientConfig{
			User:            t.username,
			HostKeyCallback: ssh.InsecureIgnoreHostKey(), // Note: In production, use ssh.FixedHostKey() or ssh.KnownHosts()
			Timeout:         t.timeout,
		}

		switch {
		case t.keyFile != "":
			key, err := os.ReadFile(t.keyFile)
			if err != nil {
				resultChan <- connResult{nil, backup.NewError(backup.ErrIO, "sftp: failed to read private key", err)}
				return
			}

			signer, err := ssh.ParsePrivateKey(key)
			if err != nil {
				resultChan <- connResult{nil, backup.NewError(backup.ErrValidation, "sftp: failed to parse private key", err)}
				return
			}
			config.Auth = []ssh.AuthMethod{ssh.PublicKeys(signer)}
		case t.password != "":
			config.Auth = []ssh.AuthMethod{ssh.Password(t.password)}
		default:
			resultChan <- connResult{nil, backup.NewError(backup.ErrConfig, "sftp: no authentication method provided", nil)}
			return
		}

		addr := fmt.Sprintf("%s:%d", t.host, t.port)
		sshConn, err := ssh.Dial("tcp", addr, config)
		if err != nil {
			resultChan <- connResult{nil, backup.NewError(backup.ErrIO, "sftp: failed to connect", err)}
			return
		}

		client, err := sftp.NewClient(sshConn)
		if err != nil {
			sshConn.Close()
			resultChan <- connResult{nil, backup.NewError(backup.ErrIO, "sftp: failed to create client", err)}
			return
		}

		resultChan <- connResult{client, nil}
	}()

	select {
	case <-ctx.Done():
		return nil, backup.NewError(backup.ErrCanceled, "sftp: connection attempt canceled", ctx.Err())
	case result := <-resultChan:
		return result.client, result.err
	}
}

// Store implements the backup.Target interface
func (t *SFTPTarget) Store(ctx context.Context, sourcePath string, metadata *backup.Metadata) error {
	if t.debug {
		t.logger.Printf("SFTP: Storing backup %s to %s", path.Base(sourcePath), t.host)
	}

	client, err := t.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := t.createDirectory(client, t.basePath); err != nil {
		return err
	}

	backupPath := path.Join(t.basePath, path.Base(sourcePath))
	if err := t.uploadFile(ctx, client, sourcePath, backupPath); err != nil {
		return err
	}

	// Write the metadata sidecar next to the archive
	metadataBytes, err := json.Marshal(convertToVersionedMetadata(metadata))
	if err != nil {
		return backup.NewError(backup.ErrIO, "sftp: failed to marshal metadata", err)
	}

	metadataFile, err := client.Create(backupPath + ftpMetadataFileExt)
	if err != nil {
		return backup.NewError(backup.ErrIO, "sftp: failed to create metadata file", err)
	}
	defer metadataFile.Close()

	if _, err := metadataFile.Write(metadataBytes); err != nil {
		return backup.NewError(backup.ErrIO, "sftp: failed to write metadata", err)
	}

	if t.debug {
		t.logger.Printf("SFTP: Successfully stored backup %s", path.Base(sourcePath))
	}

	return nil
}

// uploadFile copies a local file to the remote path
func (t *SFTPTarget) uploadFile(ctx context.Context, client *sftp.Client, localPath, remotePath string) error {
	select {
	case <-ctx.Done():
		return backup.NewError(backup.ErrCanceled, "sftp: upload canceled", ctx.Err())
	default:
	}

	srcFile, err := os.Open(localPath)
	if err != nil {
		return backup.NewError(backup.ErrIO, fmt.Sprintf("sftp: failed to open local file: %s", localPath), err)
	}
	defer srcFile.Close()

	dstFile, err := client.Create(remotePath)
	if err != nil {
		return backup.NewError(backup.ErrIO, "sftp: failed to create file", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return backup.NewError(backup.ErrIO, "sftp: failed to write file", err)
	}

	return nil
}

// List implements the backup.Target interface
func (t *SFTPTarget) List(ctx context.Context) ([]backup.BackupInfo, error) {
	if t.debug {
		t.logger.Printf("SFTP: Listing backups from %s", t.host)
	}

	client, err := t.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	entries, err := client.ReadDir(t.basePath)
	if err != nil {
		if strings.Contains(err.Error(), "no such file") {
			return []backup.BackupInfo{}, nil
		}
		return nil, backup.NewError(backup.ErrIO, "sftp: failed to list backups", err)
	}

	var backups []backup.BackupInfo
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ftpMetadataFileExt) {
			continue
		}

		backups = append(backups, backup.BackupInfo{
			Metadata: backup.Metadata{
				ID:        strings.TrimSuffix(entry.Name(), backup.ArchiveExt),
				Timestamp: entry.ModTime(),
				Size:      entry.Size(),
			},
			Target: t.Name(),
		})

		select {
		case <-ctx.Done():
			return nil, backup.NewError(backup.ErrCanceled, "sftp: listing canceled", ctx.Err())
		default:
		}
	}

	return backups, nil
}

// Delete implements the backup.Target interface
func (t *SFTPTarget) Delete(ctx context.Context, id string) error {
	if t.debug {
		t.logger.Printf("SFTP: Deleting backup %s from %s", id, t.host)
	}

	client, err := t.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	backupPath := path.Join(t.basePath, id+backup.ArchiveExt)
	if err := client.Remove(backupPath); err != nil {
		return backup.NewError(backup.ErrIO, "sftp: failed to delete backup", err)
	}

	// The metadata sidecar is best effort
	if err := client.Remove(backupPath + ftpMetadataFileExt); err != nil && t.debug {
		t.logger.Printf("SFTP: Failed to delete metadata for %s: %v", id, err)
	}

	return nil
}

// Validate checks if the target configuration is valid
func (t *SFTPTarget) Validate() error {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	client, err := t.connect(ctx)
	if err != nil {
		return backup.NewError(backup.ErrValidation, "failed to validate SFTP connection", err)
	}
	defer client.Close()

	testDir := path.Join(t.basePath, ".write_test")
	if err := t.createDirectory(client, testDir); err != nil {
		return backup.NewError(backup.ErrValidation, "failed to create test directory", err)
	}

	if err := client.RemoveDirectory(testDir); err != nil {
		t.logger.Printf("Warning: failed to remove test directory %s: %v", testDir, err)
	}

	return nil
}

func (t *SFTPTarget) createDirectory(client *sftp.Client, dirPath string) error {
	if err := client.MkdirAll(dirPath); err != nil {
		return backup.NewError(backup.ErrIO, fmt.Sprintf("sftp: failed to create directory %s", dirPath), err)
	}
	return nil
}
