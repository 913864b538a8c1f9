package conf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSaveYAMLConfigRoundTrip(t *testing.T) {
	t.Parallel()

	s := validSettings(t)
	s.Version = "1.0.0"
	s.Input.Path = "/tmp/sample.jpg"
	s.RiceNet.Latitude = 14.5995
	s.RiceNet.Longitude = 120.9842

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveYAMLConfig(configPath, s))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)

	loaded := &Settings{}
	require.NoError(t, yaml.Unmarshal(data, loaded))

	assert.Equal(t, s.Main.Name, loaded.Main.Name)
	assert.Equal(t, s.RiceNet.RiceType, loaded.RiceNet.RiceType)
	assert.InDelta(t, s.RiceNet.Latitude, loaded.RiceNet.Latitude, 1e-9)
	assert.InDelta(t, s.Quality.Milling.Premium, loaded.Quality.Milling.Premium, 1e-9)
	assert.Equal(t, s.Retention.MaxScans, loaded.Retention.MaxScans)

	// Runtime-only fields must not be persisted
	assert.Empty(t, loaded.Version)
	assert.Empty(t, loaded.Input.Path)
}

func TestDefaultsProduceValidSettings(t *testing.T) {
	// Not parallel: uses the global viper instance.
	viper.Reset()
	defer viper.Reset()

	viper.SetConfigType("yaml")
	setDefaultConfig()

	s := &Settings{}
	require.NoError(t, viper.Unmarshal(s))

	assert.Equal(t, "RiceNet-Go", s.Main.Name)
	assert.Equal(t, "white", s.RiceNet.RiceType)
	assert.True(t, s.RiceNet.UseXNNPACK)
	assert.InDelta(t, 5.0, s.Quality.Milling.Premium, 1e-9)
	assert.InDelta(t, 2.9, s.Quality.Shape.Medium, 1e-9)
	assert.InDelta(t, 20.0, s.Quality.Chalkiness, 1e-9)
	assert.Equal(t, 100, s.Retention.MaxScans)
	assert.Equal(t, "rice_quality_export", s.Export.Prefix)
	assert.True(t, s.Output.SQLite.Enabled)

	require.NoError(t, ValidateSettings(s))
}

func TestEmbeddedTemplateProducesValidSettings(t *testing.T) {
	t.Parallel()

	template := getDefaultConfig()
	require.NotEmpty(t, template)

	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(template)))

	s := &Settings{}
	require.NoError(t, v.Unmarshal(s))

	require.NoError(t, ValidateSettings(s))
	assert.Equal(t, "rice_quality_export", s.Export.Prefix)
	assert.Equal(t, 100, s.Retention.MaxScans)
	assert.Equal(t, "white", s.RiceNet.RiceType)
}

func TestGetDefaultConfigPaths(t *testing.T) {
	t.Parallel()

	paths, err := GetDefaultConfigPaths()
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	found := false
	for _, p := range paths {
		if strings.Contains(p, "ricenet-go") {
			found = true
		}
	}
	assert.True(t, found, "expected a ricenet-go specific config path, got %v", paths)
}
