package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics contains Prometheus metrics for the web API.
type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewHTTPMetrics creates and registers new HTTP metrics.
func NewHTTPMetrics(registry *prometheus.Registry) (*HTTPMetrics, error) {
	m := &HTTPMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register HTTP metrics: %w", err)
	}
	return m, nil
}

func (m *HTTPMetrics) initMetrics() {
	m.RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path"},
	)
}

// RecordRequest records one served HTTP request. The path should be the
// route pattern, not the raw URL, to keep label cardinality bounded.
func (m *HTTPMetrics) RecordRequest(method, path string, status int, durationSeconds float64) {
	m.RequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(durationSeconds)
}

// Describe implements the prometheus.Collector interface.
func (m *HTTPMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.RequestsTotal.Describe(ch)
	m.RequestDuration.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *HTTPMetrics) Collect(ch chan<- prometheus.Metric) {
	m.RequestsTotal.Collect(ch)
	m.RequestDuration.Collect(ch)
}
