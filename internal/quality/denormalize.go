package quality

import (
	"math"

	"github.com/graintec/ricenet-go/internal/errors"
)

// Sentinel errors for prediction vectors the denormalizer refuses to touch.
// Both are wrapped in enhanced errors so errors.Is still matches.
var (
	ErrInvalidPredictionShape = errors.NewStd("invalid prediction shape")
	ErrNonFinitePrediction    = errors.NewStd("non-finite prediction value")
)

// Denormalize converts a raw model output vector into physical metrics by
// inverting the training normalization. Count metrics were normalized as
// z-scores of log1p(count), so the inverse applies the z-score first and
// expm1 on top, clamping at zero before rounding. Continuous metrics only
// invert the z-score and may legitimately be negative, as with CIELAB a*
// and b* components.
func Denormalize(pred []float32, stats TransformStats) (Metrics, error) {
	if len(pred) != NumMetrics {
		return Metrics{}, errors.Newf("%w: expected %d values, got %d", ErrInvalidPredictionShape, NumMetrics, len(pred)).
			Component("quality").
			Category(errors.CategoryValidation).
			Context("expected", NumMetrics).
			Context("got", len(pred)).
			Build()
	}
	for i, v := range pred {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Metrics{}, errors.Newf("%w: %s is %v", ErrNonFinitePrediction, Metric(i), v).
				Component("quality").
				Category(errors.CategoryValidation).
				Context("metric", Metric(i).String()).
				Build()
		}
	}

	return Metrics{
		Count:       denormalizeCount(pred[MetricCount], stats[MetricCount]),
		BrokenCount: denormalizeCount(pred[MetricBrokenCount], stats[MetricBrokenCount]),
		LongCount:   denormalizeCount(pred[MetricLongCount], stats[MetricLongCount]),
		MediumCount: denormalizeCount(pred[MetricMediumCount], stats[MetricMediumCount]),
		BlackCount:  denormalizeCount(pred[MetricBlackCount], stats[MetricBlackCount]),
		ChalkyCount: denormalizeCount(pred[MetricChalkyCount], stats[MetricChalkyCount]),
		RedCount:    denormalizeCount(pred[MetricRedCount], stats[MetricRedCount]),
		YellowCount: denormalizeCount(pred[MetricYellowCount], stats[MetricYellowCount]),
		GreenCount:  denormalizeCount(pred[MetricGreenCount], stats[MetricGreenCount]),
		LengthAvg:   denormalizeContinuous(pred[MetricLengthAvg], stats[MetricLengthAvg]),
		WidthAvg:    denormalizeContinuous(pred[MetricWidthAvg], stats[MetricWidthAvg]),
		LWRatioAvg:  denormalizeContinuous(pred[MetricLWRatioAvg], stats[MetricLWRatioAvg]),
		AvgL:        denormalizeContinuous(pred[MetricAvgL], stats[MetricAvgL]),
		AvgA:        denormalizeContinuous(pred[MetricAvgA], stats[MetricAvgA]),
		AvgB:        denormalizeContinuous(pred[MetricAvgB], stats[MetricAvgB]),
	}, nil
}

func denormalizeCount(v float32, s MetricStats) int {
	count := math.Expm1(float64(v)*s.Std + s.Mean)
	if count < 0 {
		count = 0
	}
	return int(math.Round(count))
}

func denormalizeContinuous(v float32, s MetricStats) float64 {
	return float64(v)*s.Std + s.Mean
}
