// export_test.go: tests for the CSV download endpoint.

package api

import (
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/graintec/ricenet-go/internal/datastore"
)

func TestExportScansCSV(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	capturedAt := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	entities := []datastore.Scan{
		testScanEntity(t, "scan-1", capturedAt),
		testScanEntity(t, "scan-2", capturedAt.Add(time.Hour)),
	}
	mockDS.On("SearchScans", mock.AnythingOfType("*datastore.ScanFilter")).
		Return(entities, int64(2), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export?grade=1", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/export")

	require.NoError(t, controller.ExportScansCSV(c))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	disposition := rec.Header().Get("Content-Disposition")
	assert.Contains(t, disposition, "attachment")
	assert.Contains(t, disposition, "rice_quality_export_")
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))

	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header plus one row per scan
	assert.Equal(t, "scan_id", records[0][0])
	assert.Equal(t, "scan-1", records[1][0])
	assert.Equal(t, "scan-2", records[2][0])

	// Exports run oldest first regardless of the listing default
	filter := mockDS.Calls[0].Arguments.Get(0).(*datastore.ScanFilter)
	assert.True(t, filter.Ascending)
	assert.Equal(t, "1", filter.GradeCode)
	assert.Equal(t, exportMaxScans, filter.Limit)
}

func TestExportScansCSVEmptyStore(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	mockDS.On("SearchScans", mock.AnythingOfType("*datastore.ScanFilter")).
		Return([]datastore.Scan{}, int64(0), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.ExportScansCSV(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// Header line only
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "scan_id,captured_at"))
}

func TestExportScansCSVDatastoreError(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	mockDS.On("SearchScans", mock.AnythingOfType("*datastore.ScanFilter")).
		Return([]datastore.Scan{}, int64(0), assert.AnError)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.ExportScansCSV(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
