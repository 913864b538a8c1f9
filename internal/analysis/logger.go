// Package analysis provides structured logging for the analysis package
package analysis

import (
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/graintec/ricenet-go/internal/logging"
)

// Package-level logger for analysis operations
var (
	logger         *slog.Logger
	loggerInitOnce sync.Once
	closeLogger    func() error
)

func init() {
	var err error
	// Define log file path relative to working directory
	logFilePath := filepath.Join("logs", "analysis.log")

	// Initialize the service-specific file logger
	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "analysis", slog.LevelInfo)
	if err != nil {
		// Fallback: Log error to standard log and use console logging
		log.Printf("Failed to initialize analysis file logger at %s: %v. Using console logging.", logFilePath, err)
		// Set logger to a disabled handler to prevent nil panics
		fbHandler := slog.NewJSONHandler(io.Discard, nil)
		logger = slog.New(fbHandler).With("service", "analysis")
		closeLogger = func() error { return nil } // No-op closer
	}
}

// GetLogger returns the package logger for use in subpackages.
// Thread-safe initialization is guaranteed through sync.Once.
func GetLogger() *slog.Logger {
	loggerInitOnce.Do(func() {
		if logger == nil {
			logger = slog.Default().With("service", "analysis")
		}
	})
	return logger
}

// CloseLogger closes the log file and releases resources
func CloseLogger() error {
	if closeLogger != nil {
		return closeLogger()
	}
	return nil
}
