package quality

import "github.com/graintec/ricenet-go/internal/conf"

// MillingThresholds are the broken-kernel percentage cut points between
// milling grades. A sample lands in the first grade whose threshold its
// broken percentage is strictly below.
type MillingThresholds struct {
	Premium float64
	Grade1  float64
	Grade2  float64
	Grade3  float64
}

// ShapeThresholds are the length to width ratio cut points between grain
// shapes. Below Bold is bold, up to and including Medium is medium,
// anything above is slender.
type ShapeThresholds struct {
	Bold   float64
	Medium float64
}

// DefectThresholds are the ascending percentage cut points for defect
// warning severities.
type DefectThresholds struct {
	Warning  float64
	Caution  float64
	Critical float64
}

// Thresholds collects every classification cut point. Zero values are not
// usable, construct via DefaultThresholds or ThresholdsFromSettings.
type Thresholds struct {
	Milling    MillingThresholds
	Shape      ShapeThresholds
	Chalkiness float64
	Defect     DefectThresholds
}

// DefaultThresholds returns the standard grading thresholds used when no
// configuration overrides are present.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Milling:    MillingThresholds{Premium: 5, Grade1: 10, Grade2: 15, Grade3: 20},
		Shape:      ShapeThresholds{Bold: 2.1, Medium: 2.9},
		Chalkiness: 20,
		Defect:     DefectThresholds{Warning: 5, Caution: 10, Critical: 20},
	}
}

// ThresholdsFromSettings copies the grading thresholds out of the loaded
// configuration. The configuration layer has already validated ordering.
func ThresholdsFromSettings(settings *conf.Settings) Thresholds {
	q := &settings.Quality
	return Thresholds{
		Milling: MillingThresholds{
			Premium: q.Milling.Premium,
			Grade1:  q.Milling.Grade1,
			Grade2:  q.Milling.Grade2,
			Grade3:  q.Milling.Grade3,
		},
		Shape: ShapeThresholds{
			Bold:   q.Shape.Bold,
			Medium: q.Shape.Medium,
		},
		Chalkiness: q.Chalkiness,
		Defect: DefectThresholds{
			Warning:  q.Defect.Warning,
			Caution:  q.Defect.Caution,
			Critical: q.Defect.Critical,
		},
	}
}
