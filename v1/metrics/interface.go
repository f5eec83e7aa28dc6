package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Aleph-Alpha/dbaccess/v1/observability"
)

// MetricsCollector is implemented by *Metrics.
type MetricsCollector interface {
	observability.Observer

	// RegisterPool exports the connection pool statistics of db under the
	// "db_name" label.
	RegisterPool(db *sql.DB, name string) error

	// CreateCounter registers an application counter on the same registry.
	CreateCounter(name, help string, labels []string) *prometheus.CounterVec

	// CreateHistogram registers an application histogram on the same registry.
	CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec

	// CreateGauge registers an application gauge on the same registry.
	CreateGauge(name, help string, labels []string) *prometheus.GaugeVec
}

var _ MetricsCollector = (*Metrics)(nil)
