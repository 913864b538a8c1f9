// model.go this code defines the data model for the application
package datastore

import (
	"database/sql"
	"time"
)

// Scan represents a single analyzed sample photo with its denormalized
// metrics and quality assessment. Classification sub-objects are stored as
// serialized JSON since they are read back whole, while the grade code and
// length class get their own columns for grouping queries.
type Scan struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	UserID     string `gorm:"index:idx_scans_user"`
	RiceType   string `gorm:"index:idx_scans_ricetype"`
	ImagePath  string
	CapturedAt time.Time `gorm:"index:idx_scans_captured_at"`
	Latitude   sql.NullFloat64
	Longitude  sql.NullFloat64

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

	MillingGrade string `gorm:"type:text"`
	GradeCode    string `gorm:"index:idx_scans_grade"`
	GrainShape   string `gorm:"type:text"`
	Chalkiness   string `gorm:"type:text"`
	LengthClass  string
	Warnings     string `gorm:"type:text"`

	InferenceMs int64
	SyncedAt    *time.Time `gorm:"index:idx_scans_synced"`
}

// ScanFilter narrows scan listings. Zero values leave the corresponding
// dimension unconstrained.
type ScanFilter struct {
	RiceType  string
	GradeCode string
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
	Ascending bool
}

// ScanSummary aggregates the stored scans for dashboard views.
type ScanSummary struct {
	TotalScans       int64            `json:"total_scans"`
	FirstScan        time.Time        `json:"first_scan"`
	LastScan         time.Time        `json:"last_scan"`
	AvgCount         float64          `json:"avg_count"`
	AvgBrokenPercent float64          `json:"avg_broken_percent"`
	ByRiceType       map[string]int64 `json:"by_rice_type"`
	ByGrade          map[string]int64 `json:"by_grade"`
}
