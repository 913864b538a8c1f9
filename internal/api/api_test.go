// api_test.go: Package api provides tests for API endpoints.

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graintec/ricenet-go/internal/datastore"
)

// TestHealthCheck tests the health check endpoint
func TestHealthCheck(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	// Setup mock expectations for database check
	mockDS.On("GetLastScans", 1).Return([]datastore.Scan{}, nil)

	controller.Settings.Version = "1.2.3"
	controller.Settings.BuildDate = "2025-05-15"

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/health")

	require.NoError(t, controller.HealthCheck(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "1.2.3", response["version"])
	assert.Equal(t, "2025-05-15", response["build_date"])
	assert.Equal(t, "connected", response["database_status"])
	assert.Equal(t, "development", response["environment"])

	mockDS.AssertExpectations(t)
}

// TestHealthCheckDatabaseDown verifies the health payload reports a failing
// datastore without failing the endpoint itself.
func TestHealthCheckDatabaseDown(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	mockDS.On("GetLastScans", 1).Return([]datastore.Scan{}, assert.AnError)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.HealthCheck(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, "disconnected", response["database_status"])
	assert.NotEmpty(t, response["database_error"])
}

// TestHealthCheckRouteRegistered drives the request through the full echo
// stack to confirm routing and middleware wiring.
func TestHealthCheckRouteRegistered(t *testing.T) {
	e, mockDS, _ := setupTestEnvironment(t)

	mockDS.On("GetLastScans", 1).Return([]datastore.Scan{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestMetricsEndpointRegistered confirms the Prometheus scrape endpoint is
// mounted on the root mux.
func TestMetricsEndpointRegistered(t *testing.T) {
	e, _, _ := setupTestEnvironment(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ricenet_model_loaded")
}

func TestNewRejectsNilDependencies(t *testing.T) {
	_, err := New(nil, new(MockDataStore), nil, nil, nil)
	require.Error(t, err)

	_, err = New(echo.New(), nil, nil, nil, nil)
	require.Error(t, err)
}

func TestGenerateCorrelationID(t *testing.T) {
	seen := make(map[string]bool)
	for range 20 {
		id := generateCorrelationID()
		assert.Len(t, id, 8)
		seen[id] = true
	}
	// Collisions in 20 draws from 62^8 would mean a broken generator
	assert.Greater(t, len(seen), 15)
}
