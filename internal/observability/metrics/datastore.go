package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics contains Prometheus metrics for scan storage operations.
type DatastoreMetrics struct {
	ScanOperationsTotal   *prometheus.CounterVec
	ScanOperationDuration *prometheus.HistogramVec
	ScansEvictedTotal     prometheus.Counter
	StoredScansGauge      prometheus.Gauge

	registry *prometheus.Registry
}

// NewDatastoreMetrics creates and registers new datastore metrics.
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register datastore metrics: %w", err)
	}
	return m, nil
}

func (m *DatastoreMetrics) initMetrics() {
	m.ScanOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_scan_operations_total",
			Help: "Total number of scan storage operations",
		},
		[]string{"operation", "status"}, // operation: save, get, delete, search; status: success, error
	)

	m.ScanOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datastore_scan_operation_duration_seconds",
			Help:    "Time taken for scan storage operations",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation"},
	)

	m.ScansEvictedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "datastore_scans_evicted_total",
			Help: "Total number of scans evicted by the retention policy",
		},
	)

	m.StoredScansGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "datastore_scans_stored",
			Help: "Number of scans currently stored",
		},
	)
}

// RecordOperation records the outcome and duration of one storage operation.
func (m *DatastoreMetrics) RecordOperation(operation string, durationSeconds float64, err error) {
	if err != nil {
		m.ScanOperationsTotal.WithLabelValues(operation, "error").Inc()
		return
	}
	m.ScanOperationsTotal.WithLabelValues(operation, "success").Inc()
	m.ScanOperationDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordEviction adds evicted scans to the eviction counter.
func (m *DatastoreMetrics) RecordEviction(count int64) {
	if count > 0 {
		m.ScansEvictedTotal.Add(float64(count))
	}
}

// SetStoredScans updates the stored scan count gauge.
func (m *DatastoreMetrics) SetStoredScans(count float64) {
	m.StoredScansGauge.Set(count)
}

// Describe implements the prometheus.Collector interface.
func (m *DatastoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.ScanOperationsTotal.Describe(ch)
	m.ScanOperationDuration.Describe(ch)
	ch <- m.ScansEvictedTotal.Desc()
	ch <- m.StoredScansGauge.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *DatastoreMetrics) Collect(ch chan<- prometheus.Metric) {
	m.ScanOperationsTotal.Collect(ch)
	m.ScanOperationDuration.Collect(ch)
	ch <- m.ScansEvictedTotal
	ch <- m.StoredScansGauge
}
