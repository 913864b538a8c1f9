// test_utils.go: Package api provides shared test utilities for API tests.

package api

import (
	"log"
	"os"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/graintec/ricenet-go/internal/conf"
	"github.com/graintec/ricenet-go/internal/datastore"
	"github.com/graintec/ricenet-go/internal/observability"
	"github.com/graintec/ricenet-go/internal/quality"
)

// MockDataStore implements the datastore.Interface for testing.
// This is a shared implementation that can be used across all test files.
type MockDataStore struct {
	mock.Mock
}

func (m *MockDataStore) Open() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDataStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDataStore) Save(scan *datastore.Scan) error {
	args := m.Called(scan)
	return args.Error(0)
}

func (m *MockDataStore) Get(id string) (datastore.Scan, error) {
	args := m.Called(id)
	return args.Get(0).(datastore.Scan), args.Error(1)
}

func (m *MockDataStore) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockDataStore) GetAllScans() ([]datastore.Scan, error) {
	args := m.Called()
	return args.Get(0).([]datastore.Scan), args.Error(1)
}

func (m *MockDataStore) GetLastScans(limit int) ([]datastore.Scan, error) {
	args := m.Called(limit)
	return args.Get(0).([]datastore.Scan), args.Error(1)
}

func (m *MockDataStore) SearchScans(filter *datastore.ScanFilter) ([]datastore.Scan, int64, error) {
	args := m.Called(filter)
	return args.Get(0).([]datastore.Scan), args.Get(1).(int64), args.Error(2)
}

func (m *MockDataStore) CountScans() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataStore) GetScanSummary() (datastore.ScanSummary, error) {
	args := m.Called()
	return args.Get(0).(datastore.ScanSummary), args.Error(1)
}

func (m *MockDataStore) MarkSynced(id string, syncedAt time.Time) error {
	args := m.Called(id, syncedAt)
	return args.Error(0)
}

func (m *MockDataStore) GetUnsyncedScans(limit int) ([]datastore.Scan, error) {
	args := m.Called(limit)
	return args.Get(0).([]datastore.Scan), args.Error(1)
}

func (m *MockDataStore) EnforceRetention() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// setupTestEnvironment creates a test environment with Echo, MockDataStore
// and Controller.
func setupTestEnvironment(t *testing.T) (*echo.Echo, *MockDataStore, *Controller) {
	t.Helper()

	e := echo.New()
	mockDS := new(MockDataStore)

	settings := &conf.Settings{}
	settings.WebServer.Debug = true
	settings.Export.Prefix = "rice_quality_export"

	logger := log.New(os.Stdout, "API TEST: ", log.LstdFlags)

	metrics, err := observability.NewMetrics()
	require.NoError(t, err)

	controller, err := New(e, mockDS, settings, logger, metrics)
	require.NoError(t, err)

	return e, mockDS, controller
}

// testScanEntity builds a stored scan row for mock returns.
func testScanEntity(t *testing.T, id string, capturedAt time.Time) datastore.Scan {
	t.Helper()

	m := quality.Metrics{
		Count:       300,
		BrokenCount: 24,
		LongCount:   210,
		MediumCount: 90,
		ChalkyCount: 15,
		LengthAvg:   6.52,
		WidthAvg:    2.31,
		LWRatioAvg:  2.82,
		AvgL:        71.4,
		AvgA:        -1.25,
		AvgB:        12.4,
	}
	scan := quality.Scan{
		ID:              id,
		Operator:        "Mill-7",
		RiceType:        quality.RiceWhite,
		ImagePath:       "/photos/" + id + ".jpg",
		CapturedAt:      capturedAt,
		Metrics:         m,
		Classifications: quality.Classify(m, quality.DefaultThresholds()),
		InferenceMs:     38,
	}

	entity, err := datastore.FromScan(&scan)
	require.NoError(t, err)
	return entity
}
