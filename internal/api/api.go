// internal/api/api.go
package api

import (
	"crypto/rand"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/graintec/ricenet-go/internal/conf"
	"github.com/graintec/ricenet-go/internal/datastore"
	"github.com/graintec/ricenet-go/internal/logging"
	"github.com/graintec/ricenet-go/internal/observability"
)

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface
	Settings *conf.Settings

	logger         *log.Logger
	summaryCache   *cache.Cache // Cache for scan summary queries
	startTime      *time.Time
	apiLogger      *slog.Logger // Structured logger for API operations
	apiLoggerClose func() error // Function to close the log file
	metrics        *observability.Metrics
}

// New creates a new API controller, returning an error if initialization fails.
func New(e *echo.Echo, ds datastore.Interface, settings *conf.Settings,
	logger *log.Logger, metrics *observability.Metrics) (*Controller, error) {
	if e == nil {
		return nil, fmt.Errorf("echo instance must not be nil")
	}
	if ds == nil {
		return nil, fmt.Errorf("datastore must not be nil")
	}

	if logger == nil {
		logger = log.Default()
	}

	c := &Controller{
		Echo:         e,
		DS:           ds,
		Settings:     settings,
		logger:       logger,
		summaryCache: cache.New(1*time.Minute, 5*time.Minute),
		metrics:      metrics,
	}

	// Initialize structured logger for API requests
	apiLogPath := "logs/web.log"
	apiLogger, closeFunc, err := logging.NewFileLogger(apiLogPath, "api", slog.LevelInfo)
	if err != nil {
		logger.Printf("Warning: Failed to initialize API structured logger: %v", err)
		// Fallback to a disabled logger (writes to io.Discard)
		fbHandler := slog.NewJSONHandler(io.Discard, nil)
		c.apiLogger = slog.New(fbHandler).With("service", "api")
		c.apiLoggerClose = func() error { return nil } // No-op closer
	} else {
		c.apiLogger = apiLogger
		c.apiLoggerClose = closeFunc
		logger.Printf("API structured logging initialized to %s", apiLogPath)
	}

	// Create v1 API group
	c.Group = e.Group("/api/v1")

	// Configure middlewares
	c.Group.Use(middleware.Recover())       // Recover should be early
	c.Group.Use(middleware.CORS())          // CORS handling for the phone app
	c.Group.Use(middleware.BodyLimit("1M")) // Limit request body to 1MB to prevent DoS attacks
	c.Group.Use(c.LoggingMiddleware())      // Custom structured logging middleware
	c.Group.Use(c.MetricsMiddleware())      // Request counters and latency histograms

	// Initialize start time for uptime tracking
	now := time.Now()
	c.startTime = &now

	c.initRoutes()

	return c, nil
}

// initRoutes registers all API endpoints
func (c *Controller) initRoutes() {
	// Health check endpoint - publicly accessible
	c.Group.GET("/health", c.HealthCheck)

	c.initScanRoutes()
	c.initExportRoutes()

	// Prometheus scrape endpoint lives on the root mux, outside the
	// versioned group
	if c.metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))
	}
}

// LoggingMiddleware creates a middleware function that logs API requests
func (c *Controller) LoggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()

			// Process the request
			err := next(ctx)

			// Skip logging if apiLogger is not initialized
			if c.apiLogger == nil {
				return err
			}

			req := ctx.Request()
			res := ctx.Response()

			// Log with LogAttrs to avoid allocations when the level is disabled
			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.String("query", req.URL.RawQuery),
				slog.Int("status", res.Status),
				slog.String("ip", ctx.RealIP()),
				slog.String("user_agent", req.UserAgent()),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}

			c.apiLogger.LogAttrs(req.Context(), slog.LevelInfo, "API Request", attrs...)

			return err
		}
	}
}

// MetricsMiddleware records request counts and latency per route. The route
// pattern keeps label cardinality bounded regardless of path parameters.
func (c *Controller) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if c.metrics == nil || c.metrics.HTTP == nil {
				return next(ctx)
			}

			start := time.Now()
			err := next(ctx)

			status := ctx.Response().Status
			if err != nil {
				if httpErr, ok := err.(*echo.HTTPError); ok { //nolint:errorlint // handlers return bare echo errors
					status = httpErr.Code
				}
			}

			c.metrics.HTTP.RecordRequest(ctx.Request().Method, ctx.Path(), status, time.Since(start).Seconds())
			return err
		}
	}
}

// HealthCheck handles the API health check endpoint
func (c *Controller) HealthCheck(ctx echo.Context) error {
	response := map[string]any{
		"status":     "healthy",
		"version":    c.Settings.Version,
		"build_date": c.Settings.BuildDate,
		"timestamp":  time.Now().Format(time.RFC3339),
	}

	if c.Settings != nil && c.Settings.WebServer.Debug {
		response["environment"] = "development"
	} else {
		response["environment"] = "production"
	}

	// Check database connectivity - simple check if we can access the datastore
	dbStatus := "connected"
	var dbError string

	_, dbErr := c.DS.GetLastScans(1)
	if dbErr != nil {
		dbStatus = "disconnected"
		dbError = dbErr.Error()
	}

	response["database_status"] = dbStatus
	if dbError != "" {
		response["database_error"] = dbError
	}

	// Add uptime if available
	if c.startTime != nil {
		uptime := time.Since(*c.startTime)
		response["uptime"] = uptime.String()
		response["uptime_seconds"] = uptime.Seconds()
	}

	return ctx.JSON(http.StatusOK, response)
}

// Shutdown performs cleanup of all resources used by the API controller.
// This should be called when the application is shutting down.
func (c *Controller) Shutdown() {
	// Close the API logger if it was initialized
	if c.apiLoggerClose != nil {
		if err := c.apiLoggerClose(); err != nil {
			c.logger.Printf("Error closing API log file: %v", err)
		}
	}

	if c.summaryCache != nil {
		c.summaryCache.Flush()
	}

	c.Debug("API Controller shutting down")
}

// ErrorResponse is the error payload returned by all endpoints
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // Unique identifier for tracking this error
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	correlationID := generateCorrelationID()

	var errorStr string
	if err != nil {
		errorStr = err.Error()
	} else {
		errorStr = message // Use message as error if no error object is provided
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: correlationID,
	}
}

// generateCorrelationID creates a unique identifier for error tracking using
// cryptographic randomness.
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		// Fall back to a default ID if crypto/rand fails
		return "ERR-RAND"
	}

	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError constructs and returns an appropriate error response
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)

	ip := ctx.RealIP()
	c.logger.Printf("API Error [%s] from %s: %s: %v", errorResp.CorrelationID, ip, message, err)

	if c.apiLogger != nil {
		var errorStr string
		if err != nil {
			errorStr = err.Error()
		} else {
			errorStr = message
		}

		c.apiLogger.Error("API Error",
			"correlation_id", errorResp.CorrelationID,
			"message", message,
			"error", errorStr,
			"code", code,
			"path", ctx.Request().URL.Path,
			"method", ctx.Request().Method,
			"ip", ip,
		)
	}

	return ctx.JSON(code, errorResp)
}

// Debug logs debug messages when debug mode is enabled
func (c *Controller) Debug(format string, v ...any) {
	if c.Settings.WebServer.Debug {
		msg := fmt.Sprintf(format, v...)
		c.logger.Printf("[DEBUG] %s", msg)

		if c.apiLogger != nil {
			c.apiLogger.Debug(msg)
		}
	}
}
