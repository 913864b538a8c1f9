// Package logging configures the application's slog loggers: a structured
// JSON logger on stdout, a human-readable text logger on stderr, and
// per-service file loggers with rotation.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/graintec/ricenet-go/internal/conf"
	"gopkg.in/natefinch/lumberjack.v2"
)

var structuredLogger *slog.Logger
var humanReadableLogger *slog.Logger

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

// Trace and fatal level names for the handlers.
var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

// handlerOptions builds slog handler options with custom level naming.
func handlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				lvl := a.Value.Any().(slog.Level)
				label, exists := levelNames[lvl]
				if !exists {
					label = lvl.String()
				}
				a.Value = slog.StringValue(label)
			}
			return a
		},
	}
}

// Init initializes the logging system with structured and human-readable loggers.
// It configures JSON output for structured logs and Text output for human-readable logs.
func Init() {
	structuredLogger = slog.New(slog.NewJSONHandler(os.Stdout, handlerOptions(slog.LevelDebug)))
	humanReadableLogger = slog.New(slog.NewTextHandler(os.Stderr, handlerOptions(slog.LevelInfo)))

	// Structured logger is the application default
	slog.SetDefault(structuredLogger)
}

// SetLevel sets the minimum logging level for both structured and human-readable loggers.
func SetLevel(level slog.Level) {
	structuredLogger = slog.New(slog.NewJSONHandler(os.Stdout, handlerOptions(level)))
	humanReadableLogger = slog.New(slog.NewTextHandler(os.Stderr, handlerOptions(level)))
	slog.SetDefault(structuredLogger)
}

// SetOutput redirects logger output, e.g. to a buffer in tests.
func SetOutput(structuredOutput, humanReadableOutput io.Writer) {
	currentStructuredLevel := slog.LevelDebug
	if structuredLogger != nil {
		if leveler, ok := structuredLogger.Handler().(interface{ Level() slog.Level }); ok {
			currentStructuredLevel = leveler.Level()
		}
	}
	currentHumanReadableLevel := slog.LevelInfo
	if humanReadableLogger != nil {
		if leveler, ok := humanReadableLogger.Handler().(interface{ Level() slog.Level }); ok {
			currentHumanReadableLevel = leveler.Level()
		}
	}

	structuredLogger = slog.New(slog.NewJSONHandler(structuredOutput, handlerOptions(currentStructuredLevel)))
	humanReadableLogger = slog.New(slog.NewTextHandler(humanReadableOutput, handlerOptions(currentHumanReadableLevel)))
	slog.SetDefault(structuredLogger)
}

// Structured returns the globally configured structured (JSON) logger.
// Returns nil if Init() has not been called.
func Structured() *slog.Logger {
	return structuredLogger
}

// HumanReadable returns the globally configured human-readable (Text) logger.
// Returns nil if Init() has not been called.
func HumanReadable() *slog.Logger {
	return humanReadableLogger
}

// ForService creates a new logger instance with the 'service' attribute added.
// It uses the global structured logger as the base.
// Returns nil if Init() has not been called.
func ForService(serviceName string) *slog.Logger {
	if structuredLogger == nil {
		return nil
	}
	return structuredLogger.With("service", serviceName)
}

// --- Convenience functions using the default logger ---

// Debug logs a debug message using the default slog logger.
func Debug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

// Info logs an info message using the default slog logger.
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Warn logs a warning message using the default slog logger.
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs an error message using the default slog logger.
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}

// Fatal logs a fatal message using the custom Fatal level and then exits.
func Fatal(msg string, args ...any) {
	slog.Log(context.TODO(), LevelFatal, msg, args...)
	os.Exit(1)
}

// Trace logs a trace message using the custom Trace level.
func Trace(msg string, args ...any) {
	slog.Log(context.TODO(), LevelTrace, msg, args...)
}

// NewFileLogger creates a new slog.Logger writing JSON logs to the given file
// path, rotated by lumberjack according to the main log configuration. All
// records carry a 'service' attribute. It returns the logger, a function to
// close the underlying writer, and an error if setup fails.
func NewFileLogger(filePath, serviceName string, level slog.Level) (*slog.Logger, func() error, error) {
	// lumberjack doesn't create directories
	logDir := filepath.Dir(filePath)
	if logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	// Rotation settings come from the main log configuration
	mainLogConf := conf.Setting().Main.Log

	logWriter := &lumberjack.Logger{
		Filename: filePath,
		Compress: false,
	}

	// Defaults, overridden by config below
	maxSizeMB := 100
	maxBackups := 3
	maxAge := 28 // days

	configMaxSizeMB := int(mainLogConf.MaxSize / (1024 * 1024))
	if configMaxSizeMB > 0 {
		maxSizeMB = configMaxSizeMB
	}

	switch mainLogConf.Rotation {
	case conf.RotationDaily:
		maxAge = 1
		maxBackups = 30 // Keep up to 30 daily log files
	case conf.RotationWeekly:
		maxAge = 7
		maxBackups = 4 // Keep up to 4 weekly log files
	case conf.RotationSize:
		// Size-based rotation uses maxSizeMB as derived above
	default:
		slog.Warn("Unknown log rotation type in config, using size-based defaults", "configuredType", mainLogConf.Rotation)
	}

	logWriter.MaxSize = maxSizeMB
	logWriter.MaxBackups = maxBackups
	logWriter.MaxAge = maxAge

	logger := slog.New(slog.NewJSONHandler(logWriter, handlerOptions(level))).With("service", serviceName)

	closeFunc := func() error {
		return logWriter.Close()
	}

	return logger, closeFunc, nil
}
