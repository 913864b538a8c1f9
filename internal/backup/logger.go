package backup

import "log"

// Logger is the minimal logging interface used by backup sources and targets.
// *log.Logger satisfies it directly.
type Logger interface {
	Printf(format string, v ...any)
}

// DefaultLogger returns the logger used when a source or target is
// constructed without an explicit one.
func DefaultLogger() Logger {
	return log.Default()
}
