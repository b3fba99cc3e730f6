// Package metrics records connection and statement metrics with Prometheus.
//
// A Collector registers its vectors on the Registerer it is built with, so
// tests and embedders can keep them off the default registry:
//
//	c := metrics.NewCollector(prometheus.NewRegistry())
//	start := time.Now()
//	_, err := conn.Execute(ctx, "SELECT 1")
//	c.ObserveOperation("sqlite", "execute", start, err)
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "industrydb"

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Collector groups the metrics reported by connections. A nil *Collector
// discards every observation.
type Collector struct {
	operations  *prometheus.CounterVec   // operations by backend, operation and status
	duration    *prometheus.HistogramVec // operation latency by backend and operation
	openConns   *prometheus.GaugeVec     // currently open connections by backend
	rowsWritten *prometheus.CounterVec   // rows inserted, updated or deleted by backend
}

// NewCollector creates a collector and registers it on reg. A nil reg
// registers on prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Collector{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total number of connection operations",
		}, []string{"backend", "operation", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of connection operations",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}, []string{"backend", "operation"}),
		openConns: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_connections",
			Help:      "Number of open connections",
		}, []string{"backend"}),
		rowsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Rows inserted, updated or deleted",
		}, []string{"backend", "operation"}),
	}
}

// ObserveOperation counts one operation and records its duration since start.
func (c *Collector) ObserveOperation(backend, operation string, start time.Time, err error) {
	if c == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	c.operations.WithLabelValues(backend, operation, status).Inc()
	c.duration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
}

// RowsWritten adds n rows to the written-rows counter.
func (c *Collector) RowsWritten(backend, operation string, n uint64) {
	if c == nil || n == 0 {
		return
	}
	c.rowsWritten.WithLabelValues(backend, operation).Add(float64(n))
}

func (c *Collector) ConnectionOpened(backend string) {
	if c == nil {
		return
	}
	c.openConns.WithLabelValues(backend).Inc()
}

func (c *Collector) ConnectionClosed(backend string) {
	if c == nil {
		return
	}
	c.openConns.WithLabelValues(backend).Dec()
}
