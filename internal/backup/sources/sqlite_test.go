package sources

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/graintec/ricenet-go/internal/conf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// createTestDatabase builds a valid SQLite file on disk and returns its path.
func createTestDatabase(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scans.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec("CREATE TABLE probe (id INTEGER PRIMARY KEY)").Error)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	return path
}

func sqliteSettings(path string) *conf.Settings {
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = path
	return settings
}

func TestSQLiteSourceName(t *testing.T) {
	t.Parallel()

	source := NewSQLiteSource(sqliteSettings("scans.db"))
	assert.Equal(t, "sqlite", source.Name())
}

func TestSQLiteSourceValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid database", func(t *testing.T) {
		t.Parallel()
		source := NewSQLiteSource(sqliteSettings(createTestDatabase(t)))
		assert.NoError(t, source.Validate())
	})

	t.Run("sqlite disabled", func(t *testing.T) {
		t.Parallel()
		settings := sqliteSettings(createTestDatabase(t))
		settings.Output.SQLite.Enabled = false
		source := NewSQLiteSource(settings)
		assert.Error(t, source.Validate())
	})

	t.Run("missing path", func(t *testing.T) {
		t.Parallel()
		source := NewSQLiteSource(sqliteSettings(""))
		assert.Error(t, source.Validate())
	})

	t.Run("missing database file", func(t *testing.T) {
		t.Parallel()
		source := NewSQLiteSource(sqliteSettings(filepath.Join(t.TempDir(), "missing.db")))
		assert.Error(t, source.Validate())
	})
}

func TestSQLiteSourceBackup(t *testing.T) {
	t.Parallel()

	dbPath := createTestDatabase(t)
	original, err := os.ReadFile(dbPath)
	require.NoError(t, err)

	source := NewSQLiteSource(sqliteSettings(dbPath))
	reader, err := source.Backup(t.Context())
	require.NoError(t, err)

	snapshot, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())

	assert.Equal(t, original, snapshot)
}

func TestSQLiteSourceBackupMissingDatabase(t *testing.T) {
	t.Parallel()

	source := NewSQLiteSource(sqliteSettings(filepath.Join(t.TempDir(), "missing.db")))
	_, err := source.Backup(t.Context())
	assert.Error(t, err)
}
