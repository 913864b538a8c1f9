package datastore

import (
	"sync"

	"github.com/graintec/ricenet-go/internal/observability/metrics"
)

// Global metrics instance, set once by the observability package.
var (
	globalMetrics *metrics.DatastoreMetrics
	metricsMutex  sync.RWMutex
	metricsOnce   sync.Once
)

// SetMetrics sets the global metrics instance for datastore operation
// tracking. Only the first call takes effect so collectors stay consistent
// for the process lifetime.
func SetMetrics(m *metrics.DatastoreMetrics) {
	metricsOnce.Do(func() {
		metricsMutex.Lock()
		defer metricsMutex.Unlock()
		globalMetrics = m
	})
}

// getMetrics returns the current metrics instance in a thread-safe manner.
// It returns nil when metrics are not enabled.
func getMetrics() *metrics.DatastoreMetrics {
	metricsMutex.RLock()
	defer metricsMutex.RUnlock()
	return globalMetrics
}
