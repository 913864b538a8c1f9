// Package ricenet wraps the combined rice quality TensorFlow Lite model.
package ricenet

import (
	"log/slog"
	"sync"

	"github.com/graintec/ricenet-go/internal/logging"
)

var (
	serviceLogger *slog.Logger
	initOnce      sync.Once
)

// GetLogger returns the ricenet package logger.
// Uses sync.Once to ensure the logger is only initialized once.
func GetLogger() *slog.Logger {
	initOnce.Do(func() {
		serviceLogger = logging.ForService("ricenet")
	})
	return serviceLogger
}
