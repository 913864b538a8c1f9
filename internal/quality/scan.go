package quality

import (
	"time"

	"github.com/google/uuid"

	"github.com/graintec/ricenet-go/internal/conf"
)

// Scan is one analyzed sample photo together with its measurements and
// quality assessment. It is the unit persisted, exported and served by the
// rest of the application.
type Scan struct {
	ID              string
	Operator        string
	RiceType        RiceType
	ImagePath       string
	CapturedAt      time.Time
	Latitude        float64
	Longitude       float64
	Metrics         Metrics
	Classifications Classifications
	InferenceMs     int64
	SyncedAt        *time.Time
}

// NewScan assembles a scan from an analysis result, stamping it with a fresh
// ID and the operator identity and location from settings.
func NewScan(settings *conf.Settings, riceType RiceType, imagePath string, capturedAt time.Time, m Metrics, c Classifications, inferenceMs int64) Scan {
	return Scan{
		ID:              uuid.NewString(),
		Operator:        settings.Main.Name,
		RiceType:        riceType,
		ImagePath:       imagePath,
		CapturedAt:      capturedAt,
		Latitude:        settings.RiceNet.Latitude,
		Longitude:       settings.RiceNet.Longitude,
		Metrics:         m,
		Classifications: c,
		InferenceMs:     inferenceMs,
	}
}

// Synced reports whether the scan has been uploaded to a remote sink.
func (s *Scan) Synced() bool {
	return s.SyncedAt != nil
}
