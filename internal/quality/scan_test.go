package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graintec/ricenet-go/internal/conf"
)

func TestNewScanStampsIdentity(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Main.Name = "Mill-7"
	settings.RiceNet.Latitude = 14.35
	settings.RiceNet.Longitude = 100.57

	capturedAt := time.Date(2025, 6, 12, 9, 30, 0, 0, time.UTC)
	m := Metrics{Count: 300}
	c := Classify(m, DefaultThresholds())

	scan := NewScan(settings, RiceWhite, "samples/batch1.jpg", capturedAt, m, c, 42)

	require.NotEmpty(t, scan.ID)
	assert.Equal(t, "Mill-7", scan.Operator)
	assert.Equal(t, RiceWhite, scan.RiceType)
	assert.Equal(t, "samples/batch1.jpg", scan.ImagePath)
	assert.Equal(t, capturedAt, scan.CapturedAt)
	assert.InDelta(t, 14.35, scan.Latitude, 1e-9)
	assert.Equal(t, int64(42), scan.InferenceMs)
	assert.False(t, scan.Synced())

	other := NewScan(settings, RiceWhite, "samples/batch2.jpg", capturedAt, m, c, 42)
	assert.NotEqual(t, scan.ID, other.ID, "each scan gets its own id")
}
