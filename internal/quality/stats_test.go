package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graintec/ricenet-go/internal/conf"
)

func TestDefaultTransformStatsAreValid(t *testing.T) {
	t.Parallel()

	stats := DefaultTransformStats()
	require.NoError(t, stats.Validate())

	for i := range stats {
		assert.Positive(t, stats[i].Std, "std for %s", Metric(i))
	}
}

func TestStatsFromSettingsAppliesOverrides(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Quality.Stats = map[string]conf.MetricStat{
		"Count":             {Mean: 6.1, Std: 0.4},
		"WK_Length_Average": {Mean: 7.0, Std: 1.0},
	}

	stats, err := StatsFromSettings(settings)
	require.NoError(t, err)

	assert.InDelta(t, 6.1, stats[MetricCount].Mean, 1e-9)
	assert.InDelta(t, 0.4, stats[MetricCount].Std, 1e-9)
	assert.InDelta(t, 7.0, stats[MetricLengthAvg].Mean, 1e-9)

	defaults := DefaultTransformStats()
	assert.Equal(t, defaults[MetricAvgL], stats[MetricAvgL], "untouched metrics keep defaults")
}

func TestStatsFromSettingsRejectsUnknownMetric(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Quality.Stats = map[string]conf.MetricStat{
		"Weight_Average": {Mean: 1, Std: 1},
	}

	_, err := StatsFromSettings(settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown metric")
}

func TestStatsFromSettingsRejectsNonPositiveStd(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Quality.Stats = map[string]conf.MetricStat{
		"Average_a": {Mean: 2.0, Std: 0},
	}

	_, err := StatsFromSettings(settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-positive std")
}

func TestMetricByName(t *testing.T) {
	t.Parallel()

	for i := range NumMetrics {
		metric, ok := MetricByName(Metric(i).String())
		require.True(t, ok)
		assert.Equal(t, Metric(i), metric)
	}

	_, ok := MetricByName("Moisture")
	assert.False(t, ok)
}

func TestMetricCountFamilySplit(t *testing.T) {
	t.Parallel()

	assert.True(t, MetricCount.IsCount())
	assert.True(t, MetricGreenCount.IsCount())
	assert.False(t, MetricLengthAvg.IsCount())
	assert.False(t, MetricAvgB.IsCount())
}
