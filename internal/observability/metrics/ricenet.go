// Package metrics provides custom Prometheus metrics for the RiceNet-Go
// application.
package metrics

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// RiceNetMetrics contains all Prometheus metrics related to model inference.
type RiceNetMetrics struct {
	PredictionDuration *prometheus.HistogramVec
	PredictionTotal    *prometheus.CounterVec
	PredictionErrors   *prometheus.CounterVec

	ImagePrepareDuration *prometheus.HistogramVec

	ModelLoadTotal   *prometheus.CounterVec
	ModelLoadErrors  *prometheus.CounterVec
	ModelLoadedGauge prometheus.Gauge

	registry *prometheus.Registry
}

// NewRiceNetMetrics creates a new instance of RiceNetMetrics and registers it
// with the provided registry.
func NewRiceNetMetrics(registry *prometheus.Registry) (*RiceNetMetrics, error) {
	m := &RiceNetMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register RiceNet metrics: %w", err)
	}
	return m, nil
}

func (m *RiceNetMetrics) initMetrics() {
	m.PredictionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ricenet_prediction_duration_seconds",
			Help:    "Time taken to perform a model prediction",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10), // 1ms to ~1s
		},
		[]string{"model"},
	)

	m.PredictionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ricenet_predictions_total",
			Help: "Total number of prediction requests",
		},
		[]string{"model", "status"},
	)

	m.PredictionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ricenet_prediction_errors_total",
			Help: "Total number of prediction errors",
		},
		[]string{"model", "error_type"},
	)

	m.ImagePrepareDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ricenet_image_prepare_duration_seconds",
			Help:    "Time taken to decode, resize and normalize a sample photo",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"format"},
	)

	m.ModelLoadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ricenet_model_load_total",
			Help: "Total number of model load attempts",
		},
		[]string{"model", "status"},
	)

	m.ModelLoadErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ricenet_model_load_errors_total",
			Help: "Total number of model load errors",
		},
		[]string{"model", "error_type"},
	)

	m.ModelLoadedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ricenet_model_loaded",
			Help: "Whether the RiceNet model is currently loaded (1) or not (0)",
		},
	)
}

// RecordPrediction records metrics for a prediction operation.
func (m *RiceNetMetrics) RecordPrediction(model string, durationSeconds float64, err error) {
	if err != nil {
		m.PredictionTotal.WithLabelValues(model, "error").Inc()
		m.PredictionErrors.WithLabelValues(model, categorizeError(err)).Inc()
		return
	}
	m.PredictionTotal.WithLabelValues(model, "success").Inc()
	m.PredictionDuration.WithLabelValues(model).Observe(durationSeconds)
}

// RecordImagePrepare records metrics for photo preparation.
func (m *RiceNetMetrics) RecordImagePrepare(format string, durationSeconds float64) {
	m.ImagePrepareDuration.WithLabelValues(format).Observe(durationSeconds)
}

// RecordModelLoad records metrics for model loading operations.
func (m *RiceNetMetrics) RecordModelLoad(model string, err error) {
	if err != nil {
		m.ModelLoadTotal.WithLabelValues(model, "error").Inc()
		m.ModelLoadErrors.WithLabelValues(model, categorizeError(err)).Inc()
		m.ModelLoadedGauge.Set(0)
		return
	}
	m.ModelLoadTotal.WithLabelValues(model, "success").Inc()
	m.ModelLoadedGauge.Set(1)
}

// categorizeError returns a category string for the error type
func categorizeError(err error) string {
	if err == nil {
		return "none"
	}
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "tensor"):
		return "tensor_error"
	case strings.Contains(errStr, "invoke"):
		return "invoke_error"
	case strings.Contains(errStr, "image"), strings.Contains(errStr, "decode"):
		return "image_error"
	case strings.Contains(errStr, "file"):
		return "file_error"
	case strings.Contains(errStr, "model"):
		return "model_error"
	default:
		return "unknown"
	}
}

// Describe implements the prometheus.Collector interface.
func (m *RiceNetMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.PredictionDuration.Describe(ch)
	m.PredictionTotal.Describe(ch)
	m.PredictionErrors.Describe(ch)
	m.ImagePrepareDuration.Describe(ch)
	m.ModelLoadTotal.Describe(ch)
	m.ModelLoadErrors.Describe(ch)
	ch <- m.ModelLoadedGauge.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *RiceNetMetrics) Collect(ch chan<- prometheus.Metric) {
	m.PredictionDuration.Collect(ch)
	m.PredictionTotal.Collect(ch)
	m.PredictionErrors.Collect(ch)
	m.ImagePrepareDuration.Collect(ch)
	m.ModelLoadTotal.Collect(ch)
	m.ModelLoadErrors.Collect(ch)
	ch <- m.ModelLoadedGauge
}
