package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors. A dedicated registry keeps
// test instances from colliding on the default one.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// File operation metrics, labeled by operation and outcome code
	FileOps *prometheus.CounterVec

	// Execution sandbox metrics
	Executions        *prometheus.CounterVec
	ExecutionDuration prometheus.Histogram

	startTime time.Time
	Uptime    prometheus.GaugeFunc
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry:  registry,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filedock_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filedock_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		FileOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filedock_file_operations_total",
				Help: "File and folder operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		Executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filedock_executions_total",
				Help: "Script executions by outcome (completed, timeout, spawn_failed)",
			},
			[]string{"outcome"},
		),
		ExecutionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "filedock_execution_duration_seconds",
				Help:    "Wall-clock duration of script executions",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
			},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "filedock_uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordFileOp records one file operation outcome.
func (m *Metrics) RecordFileOp(operation, outcome string) {
	m.FileOps.WithLabelValues(operation, outcome).Inc()
}

// RecordExecution records one script execution outcome and duration.
func (m *Metrics) RecordExecution(outcome string, duration time.Duration) {
	m.Executions.WithLabelValues(outcome).Inc()
	m.ExecutionDuration.Observe(duration.Seconds())
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
