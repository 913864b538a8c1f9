package datastore

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/graintec/ricenet-go/internal/quality"
)

// FromScan converts a domain scan into its storable representation,
// serializing the classification sub-objects to JSON.
func FromScan(s *quality.Scan) (Scan, error) {
	milling, err := json.Marshal(s.Classifications.MillingGrade)
	if err != nil {
		return Scan{}, fmt.Errorf("encoding milling grade: %w", err)
	}
	shape, err := json.Marshal(s.Classifications.GrainShape)
	if err != nil {
		return Scan{}, fmt.Errorf("encoding grain shape: %w", err)
	}
	chalk, err := json.Marshal(s.Classifications.Chalkiness)
	if err != nil {
		return Scan{}, fmt.Errorf("encoding chalkiness: %w", err)
	}
	warnings, err := json.Marshal(s.Classifications.Warnings)
	if err != nil {
		return Scan{}, fmt.Errorf("encoding warnings: %w", err)
	}

	entity := Scan{
		ID:         s.ID,
		UserID:     s.Operator,
		RiceType:   s.RiceType.String(),
		ImagePath:  s.ImagePath,
		CapturedAt: s.CapturedAt,

		Count:       s.Metrics.Count,
		BrokenCount: s.Metrics.BrokenCount,
		LongCount:   s.Metrics.LongCount,
		MediumCount: s.Metrics.MediumCount,
		BlackCount:  s.Metrics.BlackCount,
		ChalkyCount: s.Metrics.ChalkyCount,
		RedCount:    s.Metrics.RedCount,
		YellowCount: s.Metrics.YellowCount,
		GreenCount:  s.Metrics.GreenCount,
		LengthAvg:   s.Metrics.LengthAvg,
		WidthAvg:    s.Metrics.WidthAvg,
		LWRatioAvg:  s.Metrics.LWRatioAvg,
		AvgL:        s.Metrics.AvgL,
		AvgA:        s.Metrics.AvgA,
		AvgB:        s.Metrics.AvgB,

		MillingGrade: string(milling),
		GradeCode:    s.Classifications.MillingGrade.Code,
		GrainShape:   string(shape),
		Chalkiness:   string(chalk),
		LengthClass:  string(s.Classifications.LengthClass),
		Warnings:     string(warnings),

		InferenceMs: s.InferenceMs,
		SyncedAt:    s.SyncedAt,
	}

	// A zero location means the operator never configured one.
	if s.Latitude != 0 || s.Longitude != 0 {
		entity.Latitude = sql.NullFloat64{Float64: s.Latitude, Valid: true}
		entity.Longitude = sql.NullFloat64{Float64: s.Longitude, Valid: true}
	}

	return entity, nil
}

// ToScan converts a stored row back into the domain representation.
func (s *Scan) ToScan() (quality.Scan, error) {
	out := quality.Scan{
		ID:          s.ID,
		Operator:    s.UserID,
		RiceType:    quality.RiceType(s.RiceType),
		ImagePath:   s.ImagePath,
		CapturedAt:  s.CapturedAt,
		Metrics:     s.Metrics(),
		InferenceMs: s.InferenceMs,
		SyncedAt:    s.SyncedAt,
	}
	if s.Latitude.Valid {
		out.Latitude = s.Latitude.Float64
	}
	if s.Longitude.Valid {
		out.Longitude = s.Longitude.Float64
	}

	if err := json.Unmarshal([]byte(s.MillingGrade), &out.Classifications.MillingGrade); err != nil {
		return out, fmt.Errorf("decoding milling grade for scan %s: %w", s.ID, err)
	}
	if err := json.Unmarshal([]byte(s.GrainShape), &out.Classifications.GrainShape); err != nil {
		return out, fmt.Errorf("decoding grain shape for scan %s: %w", s.ID, err)
	}
	if err := json.Unmarshal([]byte(s.Chalkiness), &out.Classifications.Chalkiness); err != nil {
		return out, fmt.Errorf("decoding chalkiness for scan %s: %w", s.ID, err)
	}
	out.Classifications.LengthClass = quality.LengthClass(s.LengthClass)
	if err := json.Unmarshal([]byte(s.Warnings), &out.Classifications.Warnings); err != nil {
		return out, fmt.Errorf("decoding warnings for scan %s: %w", s.ID, err)
	}

	return out, nil
}

// Metrics extracts the metric columns as the domain value type.
func (s *Scan) Metrics() quality.Metrics {
	return quality.Metrics{
		Count:       s.Count,
		BrokenCount: s.BrokenCount,
		LongCount:   s.LongCount,
		MediumCount: s.MediumCount,
		BlackCount:  s.BlackCount,
		ChalkyCount: s.ChalkyCount,
		RedCount:    s.RedCount,
		YellowCount: s.YellowCount,
		GreenCount:  s.GreenCount,
		LengthAvg:   s.LengthAvg,
		WidthAvg:    s.WidthAvg,
		LWRatioAvg:  s.LWRatioAvg,
		AvgL:        s.AvgL,
		AvgA:        s.AvgA,
		AvgB:        s.AvgB,
	}
}
