package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMillingGradeBoundaries(t *testing.T) {
	t.Parallel()

	thresholds := DefaultThresholds()

	cases := []struct {
		name      string
		count     int
		broken    int
		wantLabel string
		wantCode  string
	}{
		{"2 percent is premium", 300, 6, "Premium", "P"},
		{"4.999 percent is still premium", 100000, 4999, "Premium", "P"},
		{"exactly 5 percent drops to grade 1", 200, 10, "Grade 1", "1"},
		{"8 percent is grade 1", 300, 24, "Grade 1", "1"},
		{"exactly 10 percent drops to grade 2", 200, 20, "Grade 2", "2"},
		{"exactly 15 percent drops to grade 3", 200, 30, "Grade 3", "3"},
		{"19.999 percent is still grade 3", 100000, 19999, "Grade 3", "3"},
		{"exactly 20 percent drops below grade", 200, 40, "Below Grade", "BG"},
		{"60 percent is below grade", 100, 60, "Below Grade", "BG"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := Metrics{Count: tc.count, BrokenCount: tc.broken}
			c := Classify(m, thresholds)

			assert.Equal(t, tc.wantLabel, c.MillingGrade.Label)
			assert.Equal(t, tc.wantCode, c.MillingGrade.Code)
			assert.NotEmpty(t, c.MillingGrade.Color)
			assert.InDelta(t, m.BrokenPercent(), c.MillingGrade.BrokenPercent, 1e-9)
		})
	}
}

func TestGrainShapeBoundaries(t *testing.T) {
	t.Parallel()

	thresholds := DefaultThresholds()

	cases := []struct {
		name  string
		ratio float64
		want  string
	}{
		{"below bold cut", 1.8, "Bold"},
		{"just under bold cut", 2.0999, "Bold"},
		{"exactly on bold cut", 2.1, "Medium"},
		{"middle of medium band", 2.5, "Medium"},
		{"exactly on medium cut", 2.9, "Medium"},
		{"just over medium cut", 2.90001, "Slender"},
		{"well over medium cut", 3.6, "Slender"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := Metrics{Count: 100, LWRatioAvg: tc.ratio}
			c := Classify(m, thresholds)

			assert.Equal(t, tc.want, c.GrainShape.Label)
			assert.InDelta(t, tc.ratio, c.GrainShape.Ratio, 1e-9)
		})
	}
}

func TestLengthClassDominance(t *testing.T) {
	t.Parallel()

	thresholds := DefaultThresholds()

	cases := []struct {
		name   string
		count  int
		long   int
		medium int
		want   LengthClass
	}{
		{"long dominant", 1000, 950, 20, LengthLong},
		{"long at exactly ninety percent stays mixed", 1000, 900, 50, LengthMixed},
		{"medium dominant", 1000, 30, 920, LengthMedium},
		{"short dominant", 1000, 20, 30, LengthShort},
		{"no dominant fraction", 300, 210, 90, LengthMixed},
		{"empty sample", 0, 0, 0, LengthMixed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := Metrics{Count: tc.count, LongCount: tc.long, MediumCount: tc.medium}
			c := Classify(m, thresholds)

			assert.Equal(t, tc.want, c.LengthClass)
		})
	}
}

func TestChalkinessBoundary(t *testing.T) {
	t.Parallel()

	thresholds := DefaultThresholds()

	cases := []struct {
		name   string
		count  int
		chalky int
		want   string
	}{
		{"5 percent is not chalky", 200, 10, "Not Chalky"},
		{"19.999 percent is not chalky", 100000, 19999, "Not Chalky"},
		{"exactly 20 percent is chalky", 200, 40, "Chalky"},
		{"45 percent is chalky", 100, 45, "Chalky"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := Metrics{Count: tc.count, ChalkyCount: tc.chalky}
			c := Classify(m, thresholds)

			assert.Equal(t, tc.want, c.Chalkiness.Label)
		})
	}
}

func TestDefectWarningSeverityBands(t *testing.T) {
	t.Parallel()

	thresholds := DefaultThresholds()

	cases := []struct {
		name     string
		black    int
		want     Severity
		expected bool
	}{
		{"exactly 20 percent is high", 20000, SeverityHigh, true},
		{"19.999 percent is medium", 19999, SeverityMedium, true},
		{"exactly 10 percent is medium", 10000, SeverityMedium, true},
		{"9.999 percent is low", 9999, SeverityLow, true},
		{"exactly 5 percent is low", 5000, SeverityLow, true},
		{"4.999 percent raises no warning", 4999, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := Metrics{Count: 100000, BlackCount: tc.black}
			c := Classify(m, thresholds)

			if !tc.expected {
				assert.Empty(t, c.Warnings)
				return
			}
			require.Len(t, c.Warnings, 1)
			assert.Equal(t, DefectBlack, c.Warnings[0].Type)
			assert.Equal(t, tc.want, c.Warnings[0].Severity)
		})
	}
}

func TestDefectWarningsKeepCategoryOrder(t *testing.T) {
	t.Parallel()

	m := Metrics{
		Count:       1000,
		BlackCount:  60,  // 6%, low
		ChalkyCount: 250, // 25%, high
		RedCount:    120, // 12%, medium
		GreenCount:  40,  // 4%, below warning cut
		YellowCount: 210, // 21%, high
	}
	c := Classify(m, DefaultThresholds())

	require.Len(t, c.Warnings, 4)
	assert.Equal(t, DefectBlack, c.Warnings[0].Type)
	assert.Equal(t, SeverityLow, c.Warnings[0].Severity)
	assert.Equal(t, DefectRed, c.Warnings[1].Type)
	assert.Equal(t, SeverityMedium, c.Warnings[1].Severity)
	assert.Equal(t, DefectYellow, c.Warnings[2].Type)
	assert.Equal(t, SeverityHigh, c.Warnings[2].Severity)
	assert.Equal(t, DefectChalky, c.Warnings[3].Type)
	assert.Equal(t, SeverityHigh, c.Warnings[3].Severity)
}

func TestClassifyMixedSampleScenario(t *testing.T) {
	t.Parallel()

	m := Metrics{
		Count:       300,
		BrokenCount: 24,
		LongCount:   210,
		MediumCount: 90,
		LWRatioAvg:  2.5,
	}
	c := Classify(m, DefaultThresholds())

	assert.Equal(t, "1", c.MillingGrade.Code)
	assert.Equal(t, "Grade 1", c.MillingGrade.Label)
	assert.Equal(t, "Medium", c.GrainShape.Label)
	assert.Equal(t, LengthMixed, c.LengthClass)
}

func TestClassifyBlackDefectScenario(t *testing.T) {
	t.Parallel()

	m := Metrics{Count: 250, BlackCount: 75}
	c := Classify(m, DefaultThresholds())

	require.Len(t, c.Warnings, 1)
	assert.Equal(t, DefectBlack, c.Warnings[0].Type)
	assert.Equal(t, SeverityHigh, c.Warnings[0].Severity)
	assert.InDelta(t, 30.0, c.Warnings[0].Percentage, 1e-9)
}

func TestClassifyEmptySampleIsSafe(t *testing.T) {
	t.Parallel()

	m := Metrics{LWRatioAvg: 2.5}
	c := Classify(m, DefaultThresholds())

	assert.Zero(t, m.BrokenPercent())
	assert.Zero(t, m.ChalkyPercent())
	assert.Zero(t, m.ShortPercent())
	assert.Equal(t, "Premium", c.MillingGrade.Label)
	assert.Equal(t, LengthMixed, c.LengthClass)
	assert.Equal(t, "Not Chalky", c.Chalkiness.Label)
	assert.Empty(t, c.Warnings)
}

func TestClassifyIsDeterministic(t *testing.T) {
	t.Parallel()

	m := Metrics{
		Count:       412,
		BrokenCount: 37,
		LongCount:   190,
		MediumCount: 180,
		BlackCount:  21,
		ChalkyCount: 88,
		LWRatioAvg:  3.1,
	}
	thresholds := DefaultThresholds()

	assert.Equal(t, Classify(m, thresholds), Classify(m, thresholds))
}

func TestSeverityRank(t *testing.T) {
	t.Parallel()

	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Greater(t, SeverityLow.Rank(), Severity("").Rank())
}
