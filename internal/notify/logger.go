package notify

import (
	"log/slog"
	"sync"

	"github.com/graintec/ricenet-go/internal/logging"
)

var (
	logger     *slog.Logger
	loggerOnce sync.Once
)

func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		logger = logging.ForService("notify")
		if logger == nil {
			logger = slog.Default().With("service", "notify")
		}
	})
	return logger
}
