package datastore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graintec/ricenet-go/internal/quality"
)

func sampleScan() quality.Scan {
	capturedAt := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	return quality.Scan{
		ID:         "8f14e45f-ea3a-4f6b-9f6b-0c2b7a1d2e3f",
		Operator:   "Mill-7",
		RiceType:   quality.RiceWhite,
		ImagePath:  "samples/batch42.jpg",
		CapturedAt: capturedAt,
		Latitude:   13.7563,
		Longitude:  100.5018,
		Metrics: quality.Metrics{
			Count:       300,
			BrokenCount: 24,
			LongCount:   210,
			MediumCount: 90,
			BlackCount:  75,
			LengthAvg:   6.4,
			WidthAvg:    2.2,
			LWRatioAvg:  2.9,
			AvgL:        66.1,
			AvgA:        2.1,
			AvgB:        17.0,
		},
		Classifications: quality.Classifications{
			MillingGrade: quality.MillingGrade{Label: "Grade 1", Code: "1", Color: "#8BC34A", BrokenPercent: 8},
			GrainShape:   quality.GrainShape{Label: "Medium", Ratio: 2.9},
			LengthClass:  quality.LengthMixed,
			Chalkiness:   quality.Chalkiness{Label: "Not Chalky", Percent: 0},
			Warnings: []quality.DefectWarning{
				{Type: quality.DefectBlack, Severity: quality.SeverityHigh, Percentage: 25},
			},
		},
		InferenceMs: 38,
	}
}

func TestScanRoundTrip(t *testing.T) {
	t.Parallel()

	original := sampleScan()

	entity, err := FromScan(&original)
	require.NoError(t, err)

	assert.Equal(t, original.ID, entity.ID)
	assert.Equal(t, original.Operator, entity.UserID)
	assert.Equal(t, "white", entity.RiceType)
	assert.Equal(t, "1", entity.GradeCode)
	assert.Equal(t, "Mixed", entity.LengthClass)
	require.True(t, entity.Latitude.Valid)
	assert.InDelta(t, 13.7563, entity.Latitude.Float64, 1e-9)

	restored, err := entity.ToScan()
	require.NoError(t, err)

	assert.Equal(t, original.ID, restored.ID)
	assert.Equal(t, original.Operator, restored.Operator)
	assert.Equal(t, original.RiceType, restored.RiceType)
	assert.Equal(t, original.ImagePath, restored.ImagePath)
	assert.True(t, original.CapturedAt.Equal(restored.CapturedAt))
	assert.InDelta(t, original.Latitude, restored.Latitude, 1e-9)
	assert.InDelta(t, original.Longitude, restored.Longitude, 1e-9)
	assert.Equal(t, original.Metrics, restored.Metrics)
	assert.Equal(t, original.Classifications, restored.Classifications)
	assert.Equal(t, original.InferenceMs, restored.InferenceMs)
	assert.Nil(t, restored.SyncedAt)
}

func TestScanRoundTripThroughDatabase(t *testing.T) {
	t.Parallel()

	ds := setupTestStore(t, 100)
	original := sampleScan()

	entity, err := FromScan(&original)
	require.NoError(t, err)
	require.NoError(t, ds.Save(&entity))

	stored, err := ds.Get(original.ID)
	require.NoError(t, err)

	restored, err := stored.ToScan()
	require.NoError(t, err)
	assert.Equal(t, original.Metrics, restored.Metrics)
	assert.Equal(t, original.Classifications, restored.Classifications)
	assert.WithinDuration(t, original.CapturedAt, restored.CapturedAt, time.Second)
}

func TestFromScanZeroLocationBecomesNull(t *testing.T) {
	t.Parallel()

	scan := sampleScan()
	scan.Latitude = 0
	scan.Longitude = 0

	entity, err := FromScan(&scan)
	require.NoError(t, err)
	assert.False(t, entity.Latitude.Valid)
	assert.False(t, entity.Longitude.Valid)

	restored, err := entity.ToScan()
	require.NoError(t, err)
	assert.Zero(t, restored.Latitude)
	assert.Zero(t, restored.Longitude)
}

func TestScanRoundTripWithoutWarnings(t *testing.T) {
	t.Parallel()

	scan := sampleScan()
	scan.Classifications.Warnings = nil

	entity, err := FromScan(&scan)
	require.NoError(t, err)
	assert.Equal(t, "null", entity.Warnings)

	restored, err := entity.ToScan()
	require.NoError(t, err)
	assert.Nil(t, restored.Classifications.Warnings)
}

func TestToScanRejectsCorruptColumns(t *testing.T) {
	t.Parallel()

	scan := sampleScan()
	entity, err := FromScan(&scan)
	require.NoError(t, err)

	entity.MillingGrade = "{not json"
	_, err = entity.ToScan()
	require.Error(t, err)
	assert.Contains(t, err.Error(), scan.ID)
}

func TestEntityMetrics(t *testing.T) {
	t.Parallel()

	scan := sampleScan()
	entity, err := FromScan(&scan)
	require.NoError(t, err)

	assert.Equal(t, scan.Metrics, entity.Metrics())
}
