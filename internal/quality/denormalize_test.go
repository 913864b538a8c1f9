package quality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// normalizeCount applies the forward training transform for count metrics,
// z-score of log1p, so tests can verify the inverse.
func normalizeCount(count int, s MetricStats) float32 {
	return float32((math.Log1p(float64(count)) - s.Mean) / s.Std)
}

func TestDenormalizeRejectsWrongShape(t *testing.T) {
	t.Parallel()

	stats := DefaultTransformStats()

	for _, length := range []int{0, 1, 14, 16, 30} {
		_, err := Denormalize(make([]float32, length), stats)
		require.Error(t, err, "vector of length %d must be rejected", length)
		assert.ErrorIs(t, err, ErrInvalidPredictionShape)
	}
}

func TestDenormalizeRejectsNonFiniteValues(t *testing.T) {
	t.Parallel()

	stats := DefaultTransformStats()

	cases := []struct {
		name  string
		value float32
	}{
		{"nan", float32(math.NaN())},
		{"positive infinity", float32(math.Inf(1))},
		{"negative infinity", float32(math.Inf(-1))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			pred := make([]float32, NumMetrics)
			pred[MetricAvgL] = tc.value

			_, err := Denormalize(pred, stats)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNonFinitePrediction)
		})
	}
}

func TestDenormalizeIsDeterministic(t *testing.T) {
	t.Parallel()

	stats := DefaultTransformStats()
	pred := []float32{0.42, -1.3, 0.8, 0.05, -2.1, 0.33, -0.7, 1.9, -1.1, 0.6, -0.25, 1.4, 0.0, -0.9, 2.2}

	first, err := Denormalize(pred, stats)
	require.NoError(t, err)

	second, err := Denormalize(pred, stats)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical inputs must produce identical metrics")
}

func TestDenormalizeCountRoundTrip(t *testing.T) {
	t.Parallel()

	stats := DefaultTransformStats()

	counts := map[Metric]int{
		MetricCount:       300,
		MetricBrokenCount: 24,
		MetricLongCount:   210,
		MetricMediumCount: 90,
		MetricBlackCount:  3,
		MetricChalkyCount: 17,
		MetricRedCount:    1,
		MetricYellowCount: 5,
		MetricGreenCount:  2,
	}

	pred := make([]float32, NumMetrics)
	for metric, count := range counts {
		pred[metric] = normalizeCount(count, stats[metric])
	}

	m, err := Denormalize(pred, stats)
	require.NoError(t, err)

	got := map[Metric]int{
		MetricCount:       m.Count,
		MetricBrokenCount: m.BrokenCount,
		MetricLongCount:   m.LongCount,
		MetricMediumCount: m.MediumCount,
		MetricBlackCount:  m.BlackCount,
		MetricChalkyCount: m.ChalkyCount,
		MetricRedCount:    m.RedCount,
		MetricYellowCount: m.YellowCount,
		MetricGreenCount:  m.GreenCount,
	}
	for metric, want := range counts {
		assert.InDelta(t, want, got[metric], 1, "%s should survive the round trip within one kernel", metric)
	}
}

func TestDenormalizeClampsNegativeCounts(t *testing.T) {
	t.Parallel()

	stats := DefaultTransformStats()

	// A strongly negative z-score drives expm1 below zero for low-mean
	// count metrics. The result must clamp to zero, never go negative.
	pred := make([]float32, NumMetrics)
	for m := MetricCount; m < Metric(NumCountMetrics); m++ {
		pred[m] = -50
	}

	m, err := Denormalize(pred, stats)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, m.Count, 0)
	assert.GreaterOrEqual(t, m.BrokenCount, 0)
	assert.GreaterOrEqual(t, m.BlackCount, 0)
	assert.GreaterOrEqual(t, m.GreenCount, 0)
	assert.Equal(t, 0, m.RedCount, "deep negative z-score must clamp to zero")
}

func TestDenormalizeContinuousAllowsNegativeValues(t *testing.T) {
	t.Parallel()

	stats := DefaultTransformStats()

	// CIELAB a* sits near zero, so a modestly negative z-score lands on a
	// legitimately negative component.
	pred := make([]float32, NumMetrics)
	pred[MetricAvgA] = -2

	m, err := Denormalize(pred, stats)
	require.NoError(t, err)

	assert.Negative(t, m.AvgA)
	assert.InDelta(t, -2*stats[MetricAvgA].Std+stats[MetricAvgA].Mean, m.AvgA, 1e-6)
}

func TestDenormalizeZeroVectorYieldsMeans(t *testing.T) {
	t.Parallel()

	stats := DefaultTransformStats()

	m, err := Denormalize(make([]float32, NumMetrics), stats)
	require.NoError(t, err)

	assert.Equal(t, int(math.Round(math.Expm1(stats[MetricCount].Mean))), m.Count)
	assert.InDelta(t, stats[MetricLengthAvg].Mean, m.LengthAvg, 1e-9)
	assert.InDelta(t, stats[MetricAvgL].Mean, m.AvgL, 1e-9)
	assert.InDelta(t, stats[MetricAvgB].Mean, m.AvgB, 1e-9)
}
