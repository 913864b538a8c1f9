// Package errors - pluggable error reporting
package errors

import (
	"sync/atomic"
)

// Reporter receives enhanced errors for out-of-band handling, for example
// structured logging or metrics. Implementations must be safe for concurrent
// use.
type Reporter interface {
	ReportError(ee *EnhancedError)
	IsEnabled() bool
}

// hasActiveReporting gates the expensive component and category detection in
// Build. It is only set when a reporter is registered.
var hasActiveReporting atomic.Bool

// Global reporter (nil when reporting is disabled)
var globalReporter atomic.Pointer[Reporter]

// SetReporter sets the global error reporter. Passing nil disables reporting
// and restores the fast path in Build.
func SetReporter(reporter Reporter) {
	if reporter == nil {
		globalReporter.Store(nil)
		hasActiveReporting.Store(false)
		return
	}
	globalReporter.Store(&reporter)
	hasActiveReporting.Store(true)
}

// GetReporter returns the current reporter, or nil if none is registered
func GetReporter() Reporter {
	ptr := globalReporter.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// reportError hands an error to the registered reporter, if any
func reportError(ee *EnhancedError) {
	ptr := globalReporter.Load()
	if ptr == nil {
		return
	}

	reporter := *ptr
	if reporter == nil || !reporter.IsEnabled() {
		return
	}

	reporter.ReportError(ee)
	ee.MarkReported()
}
