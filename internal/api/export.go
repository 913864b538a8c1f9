// internal/api/export.go
package api

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/graintec/ricenet-go/internal/export"
	"github.com/graintec/ricenet-go/internal/quality"
)

// exportMaxScans caps how many scans a single CSV download may contain.
const exportMaxScans = 10000

// initExportRoutes registers the CSV export endpoint. Export rebuilds the
// whole result set on every request, so it is rate limited per client IP.
func (c *Controller) initExportRoutes() {
	exportGroup := c.Group.Group("/export",
		middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(2)))
	exportGroup.GET("", c.ExportScansCSV)
}

// ExportScansCSV handles GET requests for downloading scans as a CSV file.
// It accepts the same filter parameters as the scan listing.
func (c *Controller) ExportScansCSV(ctx echo.Context) error {
	filter, err := parseScanFilter(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid time filter, use RFC 3339 or YYYY-MM-DD", http.StatusBadRequest)
	}
	filter.Limit = exportMaxScans
	filter.Ascending = true // exports read naturally in capture order

	entities, total, err := c.DS.SearchScans(filter)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list scans for export", http.StatusInternalServerError)
	}
	if total > int64(len(entities)) {
		c.logger.Printf("CSV export truncated to %d of %d matching scans", len(entities), total)
	}

	scans := make([]quality.Scan, 0, len(entities))
	for i := range entities {
		scan, err := entities[i].ToScan()
		if err != nil {
			return c.HandleError(ctx, err, "Failed to decode stored scan", http.StatusInternalServerError)
		}
		scans = append(scans, scan)
	}

	csvBytes, err := export.RenderCSV(scans)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to generate CSV", http.StatusInternalServerError)
	}

	// Set headers for file download
	filename := export.Filename(c.Settings.Export.Prefix, time.Now())
	// RFC 5987: Include both filename and filename* for UTF-8 support
	encodedFilename := url.QueryEscape(filename)
	ctx.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", filename, encodedFilename))

	// Add cache control headers to prevent browser caching
	ctx.Response().Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")

	c.logAPIRequest(ctx, "scan CSV exported", "scan_count", len(scans))
	return ctx.Blob(http.StatusOK, export.MIMEType+"; charset=utf-8", csvBytes)
}
