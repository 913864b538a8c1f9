// Package observability provides metrics and monitoring capabilities for the
// RiceNet-Go application.
package observability

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/graintec/ricenet-go/internal/datastore"
	"github.com/graintec/ricenet-go/internal/observability/metrics"
	"github.com/graintec/ricenet-go/internal/ricenet"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry  *prometheus.Registry
	RiceNet   *metrics.RiceNetMetrics
	Datastore *metrics.DatastoreMetrics
	HTTP      *metrics.HTTPMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric
// collectors and handing them to the packages that record into them.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	ricenetMetrics, err := metrics.NewRiceNetMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create RiceNet metrics: %w", err)
	}

	datastoreMetrics, err := metrics.NewDatastoreMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore metrics: %w", err)
	}

	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	m := &Metrics{
		registry:  registry,
		RiceNet:   ricenetMetrics,
		Datastore: datastoreMetrics,
		HTTP:      httpMetrics,
	}

	ricenet.SetMetrics(ricenetMetrics)
	datastore.SetMetrics(datastoreMetrics)

	return m, nil
}

// RegisterHandlers registers the metrics endpoint with the provided http.ServeMux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.Handle("/metrics", m.Handler())
}

// Handler returns an HTTP handler serving the Prometheus registry, for
// mounting into whichever server the application runs.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
