package ricenet

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graintec/ricenet-go/internal/conf"
)

func TestDetermineThreadCount(t *testing.T) {
	t.Parallel()

	rn := &RiceNet{Settings: &conf.Settings{}}
	cpus := runtime.NumCPU()

	assert.Equal(t, cpus, rn.determineThreadCount(cpus+10), "requests above cpu count are capped")
	assert.Equal(t, 1, rn.determineThreadCount(1))

	auto := rn.determineThreadCount(0)
	assert.Positive(t, auto)
	assert.LessOrEqual(t, auto, cpus)
}

func TestStandardModelPathsIncludeLocalModelDir(t *testing.T) {
	t.Parallel()

	paths := standardModelPaths(DefaultModelName)
	assert.Contains(t, paths, filepath.Join("model", DefaultModelName))
	assert.Contains(t, paths, filepath.Join("data", "model", DefaultModelName))
}

func TestLoadModelFromExternalPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.tflite")
	payload := []byte("TFL3 fake model payload")
	require.NoError(t, os.WriteFile(path, payload, 0o600))

	settings := &conf.Settings{}
	settings.RiceNet.ModelPath = path

	rn := &RiceNet{Settings: settings}
	data, err := rn.loadModel()
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestLoadModelMissingExternalPath(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.RiceNet.ModelPath = filepath.Join(t.TempDir(), "absent.tflite")

	rn := &RiceNet{Settings: settings}
	_, err := rn.loadModel()
	require.Error(t, err)
}

func TestTryLoadModelFromStandardPathsReportsCandidates(t *testing.T) {
	t.Parallel()

	_, _, err := tryLoadModelFromStandardPaths("definitely_absent_model.tflite")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "definitely_absent_model.tflite")
}
