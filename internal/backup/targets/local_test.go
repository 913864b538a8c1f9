package targets

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/graintec/ricenet-go/internal/backup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestArchive(t *testing.T, id string) (string, []byte) {
	t.Helper()

	content := []byte("compressed backup payload for " + id)
	path := filepath.Join(t.TempDir(), id+backup.ArchiveExt)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path, content
}

func testMetadata(id string) *backup.Metadata {
	return &backup.Metadata{
		Version:    backup.MetadataVersion,
		ID:         id,
		Timestamp:  time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		Type:       "sqlite",
		Source:     "sqlite",
		AppVersion: "1.2.3",
		Compressed: true,
	}
}

func TestLocalTargetStoreListDelete(t *testing.T) {
	t.Parallel()

	const id = "ricenet-backup-20250601-080000"
	archivePath, content := writeTestArchive(t, id)
	metadata := testMetadata(id)
	metadata.Size = int64(len(content))

	target, err := NewLocalTarget(LocalTargetConfig{Path: filepath.Join(t.TempDir(), "backups")}, nil)
	require.NoError(t, err)

	ctx := t.Context()
	require.NoError(t, target.Store(ctx, archivePath, metadata))

	// Archive and metadata sidecar land in a directory named after the ID
	stored, err := os.ReadFile(filepath.Join(target.path, id, filepath.Base(archivePath)))
	require.NoError(t, err)
	assert.Equal(t, content, stored)
	assert.FileExists(t, filepath.Join(target.path, id, "metadata.json"))

	backups, err := target.List(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, id, backups[0].ID)
	assert.Equal(t, "local", backups[0].Target)
	assert.Equal(t, int64(len(content)), backups[0].Size)
	assert.True(t, backups[0].Timestamp.Equal(metadata.Timestamp))

	require.NoError(t, target.Delete(ctx, id))

	backups, err = target.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestLocalTargetListOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	target, err := NewLocalTarget(LocalTargetConfig{Path: filepath.Join(t.TempDir(), "backups")}, nil)
	require.NoError(t, err)

	ctx := t.Context()
	days := map[string]int{
		"ricenet-backup-20250601-080000": 1,
		"ricenet-backup-20250603-080000": 3,
		"ricenet-backup-20250602-080000": 2,
	}
	for id, day := range days {
		archivePath, content := writeTestArchive(t, id)
		metadata := testMetadata(id)
		metadata.Size = int64(len(content))
		metadata.Timestamp = time.Date(2025, 6, day, 8, 0, 0, 0, time.UTC)
		require.NoError(t, target.Store(ctx, archivePath, metadata))
	}

	backups, err := target.List(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.True(t, backups[0].Timestamp.After(backups[1].Timestamp))
	assert.True(t, backups[1].Timestamp.After(backups[2].Timestamp))
}

func TestLocalTargetStoreCancelled(t *testing.T) {
	t.Parallel()

	const id = "ricenet-backup-20250601-090000"
	archivePath, content := writeTestArchive(t, id)
	metadata := testMetadata(id)
	metadata.Size = int64(len(content))

	target, err := NewLocalTarget(LocalTargetConfig{Path: filepath.Join(t.TempDir(), "backups")}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err = target.Store(ctx, archivePath, metadata)
	require.Error(t, err)
	assert.True(t, backup.IsCanceledError(err))
}

func TestLocalTargetDeleteRejectsPathTraversal(t *testing.T) {
	t.Parallel()

	target, err := NewLocalTarget(LocalTargetConfig{Path: filepath.Join(t.TempDir(), "backups")}, nil)
	require.NoError(t, err)

	err = target.Delete(t.Context(), "../escape")
	require.Error(t, err)
	assert.True(t, backup.IsErrorCode(err, backup.ErrValidation))
}

func TestValidatePath(t *testing.T) {
	t.Parallel()

	assert.Error(t, validatePath(""))
	assert.Error(t, validatePath("backups/../../etc"))
	assert.NoError(t, validatePath(filepath.Join(t.TempDir(), "backups")))
}

func TestLocalTargetValidate(t *testing.T) {
	t.Parallel()

	target, err := NewLocalTarget(LocalTargetConfig{Path: filepath.Join(t.TempDir(), "backups")}, nil)
	require.NoError(t, err)

	assert.NoError(t, target.Validate())
}
