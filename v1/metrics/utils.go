package metrics

import (
	"database/sql"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Aleph-Alpha/dbaccess/v1/observability"
)

// ObserveOperation records one finished operation.
func (m *Metrics) ObserveOperation(ctx observability.OperationContext) {
	system := systemOf(ctx)
	status := "ok"
	if ctx.Error != nil {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(ctx.Component, ctx.Operation, system, status).Inc()
	m.operationDuration.WithLabelValues(ctx.Operation, system).Observe(ctx.Duration.Seconds())
	if ctx.Size > 0 {
		m.rowsTotal.WithLabelValues(ctx.Operation, system).Add(float64(ctx.Size))
	}
}

func systemOf(ctx observability.OperationContext) string {
	if s, ok := ctx.Metadata["db.system"].(string); ok {
		return s
	}
	return "unknown"
}

// RegisterPool exports the sql.DBStats of db.
func (m *Metrics) RegisterPool(db *sql.DB, name string) error {
	if err := m.registerer.Register(collectors.NewDBStatsCollector(db, name)); err != nil {
		return fmt.Errorf("failed to register pool collector for %q: %w", name, err)
	}
	return nil
}

// CreateCounter creates and registers a counter.
func (m *Metrics) CreateCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := createCounterVec("", name, help, labels)
	m.registerer.MustRegister(counter)
	return counter
}

// CreateHistogram creates and registers a histogram.
func (m *Metrics) CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	hist := createHistogramVec("", name, help, labels, buckets)
	m.registerer.MustRegister(hist)
	return hist
}

// CreateGauge creates and registers a gauge.
func (m *Metrics) CreateGauge(name, help string, labels []string) *prometheus.GaugeVec {
	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		labels,
	)
	m.registerer.MustRegister(gauge)
	return gauge
}

func createCounterVec(namespace, name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func createHistogramVec(namespace, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}
