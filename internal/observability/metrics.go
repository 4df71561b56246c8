package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "phylotree"

// Metrics holds the Prometheus collectors. It satisfies core.MetricsRecorder.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	HTTPRequestsTotal *prometheus.CounterVec
	ExportsTotal      *prometheus.CounterVec
	DataReloadsTotal  *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. Nil reg means the default
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "core",
			Name:      "operations_total",
			Help:      "Service operations by outcome.",
		}, []string{"operation", "status"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "core",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		ExportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exports",
			Name:      "jobs_total",
			Help:      "Export jobs by terminal status.",
		}, []string{"status"}),
		DataReloadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "data",
			Name:      "reloads_total",
			Help:      "Data file reloads by outcome.",
		}, []string{"status"}),
	}
}

// Observe records one service operation.
func (m *Metrics) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, status(success)).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ExportFinished counts an export job reaching status.
func (m *Metrics) ExportFinished(status string) {
	if m == nil {
		return
	}
	m.ExportsTotal.WithLabelValues(status).Inc()
}

// DataReloaded counts a reload attempt.
func (m *Metrics) DataReloaded(success bool) {
	if m == nil {
		return
	}
	m.DataReloadsTotal.WithLabelValues(status(success)).Inc()
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
