package datastore

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestStore creates an in-memory SQLite database for testing
func setupTestStore(t *testing.T, maxScans int) *DataStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&Scan{}))

	return &DataStore{DB: db, MaxScans: maxScans}
}

var testBaseTime = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

// testScan builds a storable scan with plausible column values. The capture
// time drives retention ordering, synced controls eviction eligibility.
func testScan(id string, capturedAt time.Time, synced bool) *Scan {
	s := &Scan{
		ID:           id,
		UserID:       "Mill-7",
		RiceType:     "white",
		ImagePath:    "samples/" + id + ".jpg",
		CapturedAt:   capturedAt,
		Count:        300,
		BrokenCount:  24,
		LongCount:    210,
		MediumCount:  90,
		LengthAvg:    6.4,
		WidthAvg:     2.2,
		LWRatioAvg:   2.9,
		AvgL:         66.1,
		AvgA:         2.1,
		AvgB:         17.0,
		MillingGrade: `{"label":"Grade 1","code":"1","color":"#8BC34A","broken_percent":8}`,
		GradeCode:    "1",
		GrainShape:   `{"label":"Medium","ratio":2.9}`,
		Chalkiness:   `{"label":"Not Chalky","percent":0}`,
		LengthClass:  "Mixed",
		Warnings:     `null`,
		InferenceMs:  38,
	}
	if synced {
		syncedAt := capturedAt.Add(time.Minute)
		s.SyncedAt = &syncedAt
	}
	return s
}

func TestSaveAndGet(t *testing.T) {
	t.Parallel()

	ds := setupTestStore(t, 100)
	scan := testScan("scan-1", testBaseTime, false)

	require.NoError(t, ds.Save(scan))

	got, err := ds.Get("scan-1")
	require.NoError(t, err)
	assert.Equal(t, scan.ID, got.ID)
	assert.Equal(t, scan.UserID, got.UserID)
	assert.Equal(t, scan.Count, got.Count)
	assert.Equal(t, scan.GradeCode, got.GradeCode)
	assert.WithinDuration(t, scan.CapturedAt, got.CapturedAt, time.Second)
	assert.Nil(t, got.SyncedAt)
}

func TestGetMissingScan(t *testing.T) {
	t.Parallel()

	ds := setupTestStore(t, 100)

	_, err := ds.Get("no-such-scan")
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSaveEvictsOldestSyncedAtCap(t *testing.T) {
	t.Parallel()

	ds := setupTestStore(t, 5)
	for i := range 5 {
		scan := testScan(fmt.Sprintf("scan-%d", i), testBaseTime.Add(time.Duration(i)*time.Hour), true)
		require.NoError(t, ds.Save(scan))
	}

	require.NoError(t, ds.Save(testScan("scan-new", testBaseTime.Add(24*time.Hour), false)))

	total, err := ds.CountScans()
	require.NoError(t, err)
	assert.Equal(t, int64(5), total, "store stays at the retention cap")

	_, err = ds.Get("scan-0")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "oldest synced scan is evicted")

	_, err = ds.Get("scan-new")
	assert.NoError(t, err, "newly saved scan is present")

	_, err = ds.Get("scan-1")
	assert.NoError(t, err, "second oldest survives")
}

func TestSaveNeverEvictsUnsynced(t *testing.T) {
	t.Parallel()

	ds := setupTestStore(t, 3)
	for i := range 3 {
		scan := testScan(fmt.Sprintf("scan-%d", i), testBaseTime.Add(time.Duration(i)*time.Hour), false)
		require.NoError(t, ds.Save(scan))
	}

	require.NoError(t, ds.Save(testScan("scan-new", testBaseTime.Add(24*time.Hour), false)))

	total, err := ds.CountScans()
	require.NoError(t, err)
	assert.Equal(t, int64(4), total, "store exceeds the cap rather than dropping unsynced scans")

	for i := range 3 {
		_, err := ds.Get(fmt.Sprintf("scan-%d", i))
		assert.NoError(t, err, "unsynced scan %d survives", i)
	}
}

func TestSaveEvictsOnlySyncedFromMixedStore(t *testing.T) {
	t.Parallel()

	ds := setupTestStore(t, 4)
	// Two synced scans, oldest first, then two unsynced.
	require.NoError(t, ds.Save(testScan("synced-old", testBaseTime, true)))
	require.NoError(t, ds.Save(testScan("synced-new", testBaseTime.Add(time.Hour), true)))
	require.NoError(t, ds.Save(testScan("unsynced-1", testBaseTime.Add(2*time.Hour), false)))
	require.NoError(t, ds.Save(testScan("unsynced-2", testBaseTime.Add(3*time.Hour), false)))

	require.NoError(t, ds.Save(testScan("incoming", testBaseTime.Add(4*time.Hour), false)))

	total, err := ds.CountScans()
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	_, err = ds.Get("synced-old")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "the oldest synced scan goes first")

	for _, id := range []string{"synced-new", "unsynced-1", "unsynced-2", "incoming"} {
		_, err := ds.Get(id)
		assert.NoError(t, err, "scan %s survives", id)
	}
}

func TestSaveWithRetentionDisabled(t *testing.T) {
	t.Parallel()

	ds := setupTestStore(t, 0)
	for i := range 20 {
		scan := testScan(fmt.Sprintf("scan-%d", i), testBaseTime.Add(time.Duration(i)*time.Minute), true)
		require.NoError(t, ds.Save(scan))
	}

	total, err := ds.CountScans()
	require.NoError(t, err)
	assert.Equal(t, int64(20), total)
}

func TestEnforceRetention(t *testing.T) {
	t.Parallel()

	ds := setupTestStore(t, 3)
	// Bypass Save so the store overfills, as it would after lowering the cap.
	for i := range 8 {
		scan := testScan(fmt.Sprintf("scan-%d", i), testBaseTime.Add(time.Duration(i)*time.Hour), true)
		require.NoError(t, ds.DB.Create(scan).Error)
	}

	evicted, err := ds.EnforceRetention()
	require.NoError(t, err)
	assert.Equal(t, int64(5), evicted)

	total, err := ds.CountScans()
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	_, err = ds.Get("scan-7")
	assert.NoError(t, err, "newest scans survive")
}

func TestDelete(t *testing.T) {
	t.Parallel()

	ds := setupTestStore(t, 100)
	require.NoError(t, ds.Save(testScan("scan-1", testBaseTime, false)))

	require.NoError(t, ds.Delete("scan-1"))

	_, err := ds.Get("scan-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = ds.Delete("scan-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "deleting twice reports not found")
}

func TestMarkSynced(t *testing.T) {
	t.Parallel()

	ds := setupTestStore(t, 100)
	require.NoError(t, ds.Save(testScan("scan-1", testBaseTime, false)))

	syncedAt := testBaseTime.Add(2 * time.Hour)
	require.NoError(t, ds.MarkSynced("scan-1", syncedAt))

	got, err := ds.Get("scan-1")
	require.NoError(t, err)
	require.NotNil(t, got.SyncedAt)
	assert.WithinDuration(t, syncedAt, *got.SyncedAt, time.Second)

	err = ds.MarkSynced("no-such-scan", syncedAt)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGetUnsyncedScans(t *testing.T) {
	t.Parallel()

	ds := setupTestStore(t, 100)
	require.NoError(t, ds.Save(testScan("synced", testBaseTime, true)))
	require.NoError(t, ds.Save(testScan("unsynced-late", testBaseTime.Add(2*time.Hour), false)))
	require.NoError(t, ds.Save(testScan("unsynced-early", testBaseTime.Add(time.Hour), false)))

	scans, err := ds.GetUnsyncedScans(10)
	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, "unsynced-early", scans[0].ID, "oldest unsynced comes first")
	assert.Equal(t, "unsynced-late", scans[1].ID)
}

func TestSearchScans(t *testing.T) {
	t.Parallel()

	ds := setupTestStore(t, 100)
	for i := range 6 {
		scan := testScan(fmt.Sprintf("white-%d", i), testBaseTime.Add(time.Duration(i)*time.Hour), false)
		require.NoError(t, ds.Save(scan))
	}
	brown := testScan("brown-0", testBaseTime.Add(30*time.Minute), false)
	brown.RiceType = "brown"
	brown.GradeCode = "P"
	require.NoError(t, ds.Save(brown))

	t.Run("filter by rice type", func(t *testing.T) {
		scans, total, err := ds.SearchScans(&ScanFilter{RiceType: "brown"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, scans, 1)
		assert.Equal(t, "brown-0", scans[0].ID)
	})

	t.Run("filter by grade code", func(t *testing.T) {
		scans, total, err := ds.SearchScans(&ScanFilter{GradeCode: "1"})
		require.NoError(t, err)
		assert.Equal(t, int64(6), total)
		assert.Len(t, scans, 6)
	})

	t.Run("time window", func(t *testing.T) {
		_, total, err := ds.SearchScans(&ScanFilter{
			From: testBaseTime.Add(2 * time.Hour),
			To:   testBaseTime.Add(4 * time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
	})

	t.Run("pagination keeps total", func(t *testing.T) {
		scans, total, err := ds.SearchScans(&ScanFilter{RiceType: "white", Limit: 2, Offset: 2, Ascending: true})
		require.NoError(t, err)
		assert.Equal(t, int64(6), total)
		require.Len(t, scans, 2)
		assert.Equal(t, "white-2", scans[0].ID)
		assert.Equal(t, "white-3", scans[1].ID)
	})

	t.Run("descending by default", func(t *testing.T) {
		scans, _, err := ds.SearchScans(&ScanFilter{RiceType: "white", Limit: 1})
		require.NoError(t, err)
		require.Len(t, scans, 1)
		assert.Equal(t, "white-5", scans[0].ID)
	})
}

func TestGetLastScans(t *testing.T) {
	t.Parallel()

	ds := setupTestStore(t, 100)
	for i := range 5 {
		scan := testScan(fmt.Sprintf("scan-%d", i), testBaseTime.Add(time.Duration(i)*time.Hour), false)
		require.NoError(t, ds.Save(scan))
	}

	scans, err := ds.GetLastScans(2)
	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, "scan-4", scans[0].ID)
	assert.Equal(t, "scan-3", scans[1].ID)
}

func TestGetScanSummary(t *testing.T) {
	t.Parallel()

	ds := setupTestStore(t, 100)

	white := testScan("white-0", testBaseTime, false)
	require.NoError(t, ds.Save(white))

	brown := testScan("brown-0", testBaseTime.Add(time.Hour), false)
	brown.RiceType = "brown"
	brown.GradeCode = "P"
	brown.Count = 200
	brown.BrokenCount = 4
	require.NoError(t, ds.Save(brown))

	summary, err := ds.GetScanSummary()
	require.NoError(t, err)

	assert.Equal(t, int64(2), summary.TotalScans)
	assert.WithinDuration(t, testBaseTime, summary.FirstScan, time.Second)
	assert.WithinDuration(t, testBaseTime.Add(time.Hour), summary.LastScan, time.Second)
	assert.InDelta(t, 250.0, summary.AvgCount, 1e-6)
	// (24/300 = 8%) and (4/200 = 2%) average to 5%.
	assert.InDelta(t, 5.0, summary.AvgBrokenPercent, 1e-6)
	assert.Equal(t, int64(1), summary.ByRiceType["white"])
	assert.Equal(t, int64(1), summary.ByRiceType["brown"])
	assert.Equal(t, int64(1), summary.ByGrade["1"])
	assert.Equal(t, int64(1), summary.ByGrade["P"])
}

func TestGetScanSummaryEmptyStore(t *testing.T) {
	t.Parallel()

	ds := setupTestStore(t, 100)

	summary, err := ds.GetScanSummary()
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.TotalScans)
	assert.Empty(t, summary.ByRiceType)
}
