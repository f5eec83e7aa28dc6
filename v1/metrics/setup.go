package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dbaccess"

// Metrics exports database operation metrics to Prometheus. It is an
// observability.Observer: hand it to access.WithObserver, or let the fx
// module install it as the process default.
type Metrics struct {
	// Server serves the registry on Config.Address.
	Server *http.Server

	// Registry holds every metric of this instance.
	Registry *prometheus.Registry

	registerer prometheus.Registerer

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	rowsTotal         *prometheus.CounterVec
}

// NewMetrics creates the registry, registers the operation metrics and
// prepares, without starting, the HTTP server.
//
// Registered metrics:
//   - dbaccess_operations_total{component,operation,system,status}
//   - dbaccess_operation_duration_seconds{operation,system}
//   - dbaccess_rows_total{operation,system}
func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	wrappedRegistry := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	m := &Metrics{
		Registry:   registry,
		registerer: wrappedRegistry,
	}

	m.operationsTotal = createCounterVec(namespace, "operations_total",
		"Total number of database operations", []string{"component", "operation", "system", "status"})
	m.operationDuration = createHistogramVec(namespace, "operation_duration_seconds",
		"Duration of database operations in seconds", []string{"operation", "system"}, prometheus.DefBuckets)
	m.rowsTotal = createCounterVec(namespace, "rows_total",
		"Rows read or affected by database operations", []string{"operation", "system"})

	wrappedRegistry.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.rowsTotal,
	)

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	m.Server = &http.Server{
		Addr:    cfg.Address,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	return m
}
