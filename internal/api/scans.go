// internal/api/scans.go
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/graintec/ricenet-go/internal/datastore"
	"github.com/graintec/ricenet-go/internal/quality"
)

// summaryCacheKey is the cache key for the aggregated scan summary.
const summaryCacheKey = "scan_summary"

// initScanRoutes registers all scan-related API endpoints
func (c *Controller) initScanRoutes() {
	c.Group.GET("/scans", c.GetScans)
	c.Group.GET("/scans/summary", c.GetScanSummary)
	c.Group.GET("/scans/:id", c.GetScan)
	c.Group.DELETE("/scans/:id", c.DeleteScan)
}

// MetricsResponse carries the denormalized measurements of one scan
type MetricsResponse struct {
	Count         int     `json:"count"`
	BrokenCount   int     `json:"broken_count"`
	BrokenPercent float64 `json:"broken_percent"`
	LongCount     int     `json:"long_count"`
	MediumCount   int     `json:"medium_count"`
	BlackCount    int     `json:"black_count"`
	ChalkyCount   int     `json:"chalky_count"`
	RedCount      int     `json:"red_count"`
	YellowCount   int     `json:"yellow_count"`
	GreenCount    int     `json:"green_count"`
	LengthAvg     float64 `json:"length_avg"`
	WidthAvg      float64 `json:"width_avg"`
	LWRatioAvg    float64 `json:"lw_ratio_avg"`
	AvgL          float64 `json:"avg_l"`
	AvgA          float64 `json:"avg_a"`
	AvgB          float64 `json:"avg_b"`
}

// ScanResponse represents a scan in the API response
type ScanResponse struct {
	ID              string                  `json:"id"`
	Operator        string                  `json:"operator,omitempty"`
	RiceType        string                  `json:"rice_type"`
	ImagePath       string                  `json:"image_path,omitempty"`
	CapturedAt      time.Time               `json:"captured_at"`
	Latitude        float64                 `json:"latitude,omitempty"`
	Longitude       float64                 `json:"longitude,omitempty"`
	Metrics         MetricsResponse         `json:"metrics"`
	Classifications quality.Classifications `json:"classifications"`
	InferenceMs     int64                   `json:"inference_ms"`
	SyncedAt        *time.Time              `json:"synced_at,omitempty"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data        any   `json:"data"`
	Total       int64 `json:"total"`
	Limit       int   `json:"limit"`
	Offset      int   `json:"offset"`
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
}

// scanToResponse converts a domain scan to its API representation.
func scanToResponse(s *quality.Scan) ScanResponse {
	return ScanResponse{
		ID:         s.ID,
		Operator:   s.Operator,
		RiceType:   s.RiceType.String(),
		ImagePath:  s.ImagePath,
		CapturedAt: s.CapturedAt,
		Latitude:   s.Latitude,
		Longitude:  s.Longitude,
		Metrics: MetricsResponse{
			Count:         s.Metrics.Count,
			BrokenCount:   s.Metrics.BrokenCount,
			BrokenPercent: s.Metrics.BrokenPercent(),
			LongCount:     s.Metrics.LongCount,
			MediumCount:   s.Metrics.MediumCount,
			BlackCount:    s.Metrics.BlackCount,
			ChalkyCount:   s.Metrics.ChalkyCount,
			RedCount:      s.Metrics.RedCount,
			YellowCount:   s.Metrics.YellowCount,
			GreenCount:    s.Metrics.GreenCount,
			LengthAvg:     s.Metrics.LengthAvg,
			WidthAvg:      s.Metrics.WidthAvg,
			LWRatioAvg:    s.Metrics.LWRatioAvg,
			AvgL:          s.Metrics.AvgL,
			AvgA:          s.Metrics.AvgA,
			AvgB:          s.Metrics.AvgB,
		},
		Classifications: s.Classifications,
		InferenceMs:     s.InferenceMs,
		SyncedAt:        s.SyncedAt,
	}
}

// parseScanFilter extracts the shared list and export query parameters.
func parseScanFilter(ctx echo.Context) (*datastore.ScanFilter, error) {
	filter := &datastore.ScanFilter{
		RiceType:  ctx.QueryParam("rice_type"),
		GradeCode: ctx.QueryParam("grade"),
		Ascending: ctx.QueryParam("order") == "asc",
	}

	var err error
	if filter.From, err = parseTimeParam(ctx.QueryParam("from")); err != nil {
		return nil, err
	}
	if filter.To, err = parseTimeParam(ctx.QueryParam("to")); err != nil {
		return nil, err
	}
	return filter, nil
}

// parseTimeParam parses a time query parameter, accepting RFC 3339 timestamps
// and plain dates. An empty value yields the zero time.
func parseTimeParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, value)
}

// GetScans handles GET requests for listing scans with filters and pagination
func (c *Controller) GetScans(ctx echo.Context) error {
	filter, err := parseScanFilter(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid time filter, use RFC 3339 or YYYY-MM-DD", http.StatusBadRequest)
	}

	numResults, _ := strconv.Atoi(ctx.QueryParam("numResults"))
	offset, _ := strconv.Atoi(ctx.QueryParam("offset"))

	// Set default values and enforce maximum limit
	if numResults <= 0 {
		numResults = 100
	} else if numResults > 1000 {
		// Enforce a maximum limit to prevent excessive loads
		numResults = 1000
	}
	if offset < 0 {
		offset = 0
	}
	filter.Limit = numResults
	filter.Offset = offset

	entities, total, err := c.DS.SearchScans(filter)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list scans", http.StatusInternalServerError)
	}

	scans := make([]ScanResponse, 0, len(entities))
	for i := range entities {
		scan, err := entities[i].ToScan()
		if err != nil {
			return c.HandleError(ctx, err, "Failed to decode stored scan", http.StatusInternalServerError)
		}
		scans = append(scans, scanToResponse(&scan))
	}

	currentPage := (offset / numResults) + 1
	totalPages := int((total + int64(numResults) - 1) / int64(numResults))

	return ctx.JSON(http.StatusOK, PaginatedResponse{
		Data:        scans,
		Total:       total,
		Limit:       numResults,
		Offset:      offset,
		CurrentPage: currentPage,
		TotalPages:  totalPages,
	})
}

// GetScan handles GET requests for a single scan by ID
func (c *Controller) GetScan(ctx echo.Context) error {
	id := ctx.Param("id")

	entity, err := c.DS.Get(id)
	if err != nil {
		return c.HandleError(ctx, err, "Scan not found", http.StatusNotFound)
	}

	scan, err := entity.ToScan()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to decode stored scan", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, scanToResponse(&scan))
}

// DeleteScan handles DELETE requests for removing a scan
func (c *Controller) DeleteScan(ctx echo.Context) error {
	id := ctx.Param("id")

	if _, err := c.DS.Get(id); err != nil {
		return c.HandleError(ctx, err, "Scan not found", http.StatusNotFound)
	}

	if err := c.DS.Delete(id); err != nil {
		return c.HandleError(ctx, err, "Failed to delete scan", http.StatusInternalServerError)
	}

	// Aggregates changed, invalidate the cached summary
	c.summaryCache.Delete(summaryCacheKey)

	c.logAPIRequest(ctx, "scan deleted", "scan_id", id)
	return ctx.NoContent(http.StatusNoContent)
}

// GetScanSummary handles GET requests for the aggregated scan summary.
// Summaries are cached briefly since dashboards poll this endpoint.
func (c *Controller) GetScanSummary(ctx echo.Context) error {
	if cached, found := c.summaryCache.Get(summaryCacheKey); found {
		if summary, ok := cached.(datastore.ScanSummary); ok {
			return ctx.JSON(http.StatusOK, summary)
		}
	}

	summary, err := c.DS.GetScanSummary()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to compute scan summary", http.StatusInternalServerError)
	}

	c.summaryCache.Set(summaryCacheKey, summary, 0) // default expiration
	return ctx.JSON(http.StatusOK, summary)
}

// logAPIRequest is a helper to log API requests with common context fields.
func (c *Controller) logAPIRequest(ctx echo.Context, msg string, args ...any) {
	if c.apiLogger == nil {
		return
	}

	baseAttrs := []any{
		"path", ctx.Request().URL.Path,
		"ip", ctx.RealIP(),
	}
	baseAttrs = append(baseAttrs, args...)

	c.apiLogger.Info(msg, baseAttrs...)
}
