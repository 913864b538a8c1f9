package quality

import (
	"github.com/graintec/ricenet-go/internal/conf"
	"github.com/graintec/ricenet-go/internal/errors"
)

// MetricStats holds the per-metric normalization parameters learned during
// training. Count metrics carry mean and std of log1p(count), continuous
// metrics carry mean and std in physical units.
type MetricStats struct {
	Mean float64
	Std  float64
}

// TransformStats holds the normalization parameters for the full output
// vector, indexed by Metric.
type TransformStats [NumMetrics]MetricStats

// DefaultTransformStats returns the normalization parameters the bundled
// combined model was trained with.
func DefaultTransformStats() TransformStats {
	return TransformStats{
		MetricCount:       {Mean: 5.65, Std: 0.55},
		MetricBrokenCount: {Mean: 2.90, Std: 1.10},
		MetricLongCount:   {Mean: 4.80, Std: 1.00},
		MetricMediumCount: {Mean: 4.10, Std: 1.20},
		MetricBlackCount:  {Mean: 1.20, Std: 1.00},
		MetricChalkyCount: {Mean: 2.60, Std: 1.15},
		MetricRedCount:    {Mean: 0.90, Std: 0.95},
		MetricYellowCount: {Mean: 1.50, Std: 1.05},
		MetricGreenCount:  {Mean: 1.10, Std: 1.00},
		MetricLengthAvg:   {Mean: 6.45, Std: 0.85},
		MetricWidthAvg:    {Mean: 2.18, Std: 0.34},
		MetricLWRatioAvg:  {Mean: 3.02, Std: 0.58},
		MetricAvgL:        {Mean: 64.8, Std: 11.9},
		MetricAvgA:        {Mean: 2.4, Std: 3.6},
		MetricAvgB:        {Mean: 17.6, Std: 6.2},
	}
}

// Validate checks that every metric has a usable standard deviation. A zero
// or negative std would collapse or flip the inverse transform.
func (ts *TransformStats) Validate() error {
	for i := range ts {
		if ts[i].Std <= 0 {
			return errors.Newf("transform stats for %s have non-positive std %g", Metric(i), ts[i].Std).
				Component("quality").
				Category(errors.CategoryValidation).
				Context("metric", Metric(i).String()).
				Context("std", ts[i].Std).
				Build()
		}
	}
	return nil
}

// StatsFromSettings builds the transform stats from configuration, starting
// from the bundled defaults and applying any per-metric overrides. Overrides
// let a retrained model ship without a rebuild.
func StatsFromSettings(settings *conf.Settings) (TransformStats, error) {
	stats := DefaultTransformStats()
	for name, override := range settings.Quality.Stats {
		metric, ok := MetricByName(name)
		if !ok {
			return stats, errors.Newf("unknown metric %q in quality stats overrides", name).
				Component("quality").
				Category(errors.CategoryConfiguration).
				Context("metric", name).
				Build()
		}
		stats[metric] = MetricStats{Mean: override.Mean, Std: override.Std}
	}
	if err := stats.Validate(); err != nil {
		return stats, err
	}
	return stats, nil
}
