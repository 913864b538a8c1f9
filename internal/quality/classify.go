package quality

// Display colors for milling grades, used by the web UI and reports.
const (
	colorPremium    = "#4CAF50"
	colorGrade1     = "#8BC34A"
	colorGrade2     = "#FFC107"
	colorGrade3     = "#FF9800"
	colorBelowGrade = "#F44336"
)

// dominanceThreshold is the percentage a length fraction must exceed for the
// sample to count as a single length class instead of mixed.
const dominanceThreshold = 90.0

// MillingGrade is the head rice grade derived from the broken kernel share.
type MillingGrade struct {
	Label         string  `json:"label"`
	Code          string  `json:"code"`
	Color         string  `json:"color"`
	BrokenPercent float64 `json:"broken_percent"`
}

// BelowGrade reports whether the sample failed to reach any milling grade.
func (g MillingGrade) BelowGrade() bool {
	return g.Code == "BG"
}

// GrainShape is the kernel silhouette class derived from the average length
// to width ratio.
type GrainShape struct {
	Label string  `json:"label"`
	Ratio float64 `json:"ratio"`
}

// LengthClass describes the dominant kernel length fraction.
type LengthClass string

const (
	LengthLong   LengthClass = "Long Grain"
	LengthMedium LengthClass = "Medium Grain"
	LengthShort  LengthClass = "Short Grain"
	LengthMixed  LengthClass = "Mixed"
)

// Chalkiness is the opaque kernel assessment.
type Chalkiness struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
}

// DefectType names a kernel defect category tracked by warnings.
type DefectType string

const (
	DefectBlack  DefectType = "black"
	DefectGreen  DefectType = "green"
	DefectRed    DefectType = "red"
	DefectYellow DefectType = "yellow"
	DefectChalky DefectType = "chalky"
)

// Severity ranks a defect warning.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// severityRanks orders severities for comparisons and filtering.
var severityRanks = map[Severity]int{
	SeverityLow:    1,
	SeverityMedium: 2,
	SeverityHigh:   3,
}

// Rank returns the numeric ordering of the severity, higher is worse.
// Unknown severities rank below low.
func (s Severity) Rank() int {
	return severityRanks[s]
}

// DefectWarning flags one defect category whose share of the sample crossed
// a severity threshold.
type DefectWarning struct {
	Type       DefectType `json:"type"`
	Severity   Severity   `json:"severity"`
	Percentage float64    `json:"percentage"`
}

// Classifications is the complete quality assessment for one sample.
type Classifications struct {
	MillingGrade MillingGrade    `json:"milling_grade"`
	GrainShape   GrainShape      `json:"grain_shape"`
	LengthClass  LengthClass     `json:"length_class"`
	Chalkiness   Chalkiness      `json:"chalkiness"`
	Warnings     []DefectWarning `json:"warnings,omitempty"`
}

// Classify derives the full quality assessment from denormalized metrics.
// The same metrics and thresholds always produce the same assessment.
func Classify(m Metrics, t Thresholds) Classifications {
	return Classifications{
		MillingGrade: millingGrade(m.BrokenPercent(), t.Milling),
		GrainShape:   grainShape(m.LWRatioAvg, t.Shape),
		LengthClass:  lengthClass(m),
		Chalkiness:   chalkiness(m.ChalkyPercent(), t.Chalkiness),
		Warnings:     defectWarnings(m, t.Defect),
	}
}

// millingGrade assigns the grade whose threshold the broken percentage is
// strictly below. A sample sitting exactly on a cut point falls into the
// next grade down.
func millingGrade(brokenPercent float64, t MillingThresholds) MillingGrade {
	g := MillingGrade{BrokenPercent: brokenPercent}
	switch {
	case brokenPercent < t.Premium:
		g.Label, g.Code, g.Color = "Premium", "P", colorPremium
	case brokenPercent < t.Grade1:
		g.Label, g.Code, g.Color = "Grade 1", "1", colorGrade1
	case brokenPercent < t.Grade2:
		g.Label, g.Code, g.Color = "Grade 2", "2", colorGrade2
	case brokenPercent < t.Grade3:
		g.Label, g.Code, g.Color = "Grade 3", "3", colorGrade3
	default:
		g.Label, g.Code, g.Color = "Below Grade", "BG", colorBelowGrade
	}
	return g
}

// grainShape classifies the kernel silhouette. The medium band includes its
// upper bound, so a ratio exactly at the medium threshold is still medium.
func grainShape(ratio float64, t ShapeThresholds) GrainShape {
	s := GrainShape{Ratio: ratio}
	switch {
	case ratio < t.Bold:
		s.Label = "Bold"
	case ratio <= t.Medium:
		s.Label = "Medium"
	default:
		s.Label = "Slender"
	}
	return s
}

// lengthClass picks the dominant length fraction. The short fraction is the
// remainder after long and medium kernels. Samples without a dominant
// fraction are mixed, as are empty samples.
func lengthClass(m Metrics) LengthClass {
	if m.Count <= 0 {
		return LengthMixed
	}
	switch {
	case m.LongPercent() > dominanceThreshold:
		return LengthLong
	case m.MediumPercent() > dominanceThreshold:
		return LengthMedium
	case m.ShortPercent() > dominanceThreshold:
		return LengthShort
	default:
		return LengthMixed
	}
}

func chalkiness(chalkyPercent, threshold float64) Chalkiness {
	c := Chalkiness{Label: "Chalky", Percent: chalkyPercent}
	if chalkyPercent < threshold {
		c.Label = "Not Chalky"
	}
	return c
}

// defectWarnings emits one warning per defect category whose share reached
// at least the lowest severity threshold, in fixed category order. Empty
// samples produce no warnings.
func defectWarnings(m Metrics, t DefectThresholds) []DefectWarning {
	if m.Count <= 0 {
		return nil
	}
	checks := []struct {
		typ   DefectType
		count int
	}{
		{DefectBlack, m.BlackCount},
		{DefectGreen, m.GreenCount},
		{DefectRed, m.RedCount},
		{DefectYellow, m.YellowCount},
		{DefectChalky, m.ChalkyCount},
	}
	var warnings []DefectWarning
	for _, check := range checks {
		pct := m.percent(check.count)
		severity, flagged := severityFor(pct, t)
		if !flagged {
			continue
		}
		warnings = append(warnings, DefectWarning{
			Type:       check.typ,
			Severity:   severity,
			Percentage: pct,
		})
	}
	return warnings
}

// severityFor maps a defect percentage to a warning severity. Thresholds
// are inclusive, a share exactly at a cut point takes that severity.
func severityFor(pct float64, t DefectThresholds) (Severity, bool) {
	switch {
	case pct >= t.Critical:
		return SeverityHigh, true
	case pct >= t.Caution:
		return SeverityMedium, true
	case pct >= t.Warning:
		return SeverityLow, true
	default:
		return "", false
	}
}
