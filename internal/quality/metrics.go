package quality

// Metrics holds the denormalized kernel measurements for one sample photo.
// Counts are whole kernels, lengths and widths are millimeters, color
// averages are CIELAB components.
type Metrics struct {
	Count       int
	BrokenCount int
	LongCount   int
	MediumCount int
	BlackCount  int
	ChalkyCount int
	RedCount    int
	YellowCount int
	GreenCount  int
	LengthAvg   float64
	WidthAvg    float64
	LWRatioAvg  float64
	AvgL        float64
	AvgA        float64
	AvgB        float64
}

// percent returns n as a percentage of the total kernel count. An empty
// sample yields 0 for every percentage so downstream grading never divides
// by zero.
func (m *Metrics) percent(n int) float64 {
	if m.Count <= 0 {
		return 0
	}
	return float64(n) / float64(m.Count) * 100
}

// BrokenPercent returns the share of broken kernels in the sample.
func (m *Metrics) BrokenPercent() float64 { return m.percent(m.BrokenCount) }

// LongPercent returns the share of long kernels in the sample.
func (m *Metrics) LongPercent() float64 { return m.percent(m.LongCount) }

// MediumPercent returns the share of medium kernels in the sample.
func (m *Metrics) MediumPercent() float64 { return m.percent(m.MediumCount) }

// ShortPercent returns the share of short kernels, derived as the remainder
// after long and medium kernels.
func (m *Metrics) ShortPercent() float64 {
	if m.Count <= 0 {
		return 0
	}
	return 100 - m.LongPercent() - m.MediumPercent()
}

// ChalkyPercent returns the share of chalky kernels in the sample.
func (m *Metrics) ChalkyPercent() float64 { return m.percent(m.ChalkyCount) }

// BlackPercent returns the share of black kernels in the sample.
func (m *Metrics) BlackPercent() float64 { return m.percent(m.BlackCount) }

// RedPercent returns the share of red kernels in the sample.
func (m *Metrics) RedPercent() float64 { return m.percent(m.RedCount) }

// YellowPercent returns the share of yellow kernels in the sample.
func (m *Metrics) YellowPercent() float64 { return m.percent(m.YellowCount) }

// GreenPercent returns the share of green kernels in the sample.
func (m *Metrics) GreenPercent() float64 { return m.percent(m.GreenCount) }
