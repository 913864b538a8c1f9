// Package quality implements the rice quality assessment core: denormalizing
// raw model predictions into kernel metrics and classifying them into grades,
// shape and defect warnings. All functions are deterministic and free of I/O.
package quality

// Metric identifies one of the model's regression outputs. The numeric value
// is the metric's position in the model output vector, so the constants below
// must match the combined model's target order exactly.
type Metric int

const (
	MetricCount Metric = iota
	MetricBrokenCount
	MetricLongCount
	MetricMediumCount
	MetricBlackCount
	MetricChalkyCount
	MetricRedCount
	MetricYellowCount
	MetricGreenCount
	MetricLengthAvg
	MetricWidthAvg
	MetricLWRatioAvg
	MetricAvgL
	MetricAvgA
	MetricAvgB
)

// NumMetrics is the length of the model output vector.
const NumMetrics = 15

// NumCountMetrics is the number of leading count-family metrics. Count
// metrics are normalized in log1p space during training and need the inverse
// applied on top of the z-score inversion.
const NumCountMetrics = 9

// metricNames holds the training target names in model output order.
var metricNames = [NumMetrics]string{
	"Count",
	"Broken_Count",
	"Long_Count",
	"Medium_Count",
	"Black_Count",
	"Chalky_Count",
	"Red_Count",
	"Yellow_Count",
	"Green_Count",
	"WK_Length_Average",
	"WK_Width_Average",
	"WK_LW_Ratio_Average",
	"Average_L",
	"Average_a",
	"Average_b",
}

// String returns the metric's training target name.
func (m Metric) String() string {
	if m < 0 || int(m) >= NumMetrics {
		return "Unknown"
	}
	return metricNames[m]
}

// IsCount reports whether the metric belongs to the count family.
func (m Metric) IsCount() bool {
	return m >= 0 && int(m) < NumCountMetrics
}

// MetricByName resolves a training target name to its Metric.
func MetricByName(name string) (Metric, bool) {
	for i := range metricNames {
		if metricNames[i] == name {
			return Metric(i), true
		}
	}
	return 0, false
}
