package datastore

import (
	"log/slog"
	"sync"

	"github.com/graintec/ricenet-go/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("datastore")
	})
	return serviceLogger
}
