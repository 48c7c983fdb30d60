package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Export pipeline metrics
	SpansEnqueued prometheus.Counter
	SpansExported prometheus.Counter
	SpansDropped  prometheus.Counter
	FlushesTotal  prometheus.Counter
	FlushFailures prometheus.Counter
}

// NewMetrics creates a metrics collector on the default registry
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates a metrics collector on a custom registry.
// Tests use this to avoid duplicate registration panics.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demotrace_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "demotrace_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		SpansEnqueued: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "demotrace_export_spans_enqueued_total",
				Help: "Spans handed to the export queue",
			},
		),
		SpansExported: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "demotrace_export_spans_exported_total",
				Help: "Spans successfully transmitted to the collector",
			},
		),
		SpansDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "demotrace_export_spans_dropped_total",
				Help: "Spans dropped due to a full queue or exhausted retries",
			},
		),
		FlushesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "demotrace_export_flushes_total",
				Help: "Export flush attempts",
			},
		),
		FlushFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "demotrace_export_flush_failures_total",
				Help: "Export flushes that exhausted their retry budget",
			},
		),
	}
}

// RecordHTTPRequest records one completed HTTP request.
// Safe to call on a nil receiver so metrics stay optional in tests.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordEnqueued counts spans appended to the export queue.
func (m *Metrics) RecordEnqueued(n int) {
	if m == nil {
		return
	}
	m.SpansEnqueued.Add(float64(n))
}

// RecordExported counts spans successfully transmitted.
func (m *Metrics) RecordExported(n int) {
	if m == nil {
		return
	}
	m.SpansExported.Add(float64(n))
}

// RecordDropped counts spans discarded by the export pipeline.
func (m *Metrics) RecordDropped(n int) {
	if m == nil {
		return
	}
	m.SpansDropped.Add(float64(n))
}

// RecordFlush counts one flush attempt and whether it ultimately failed.
func (m *Metrics) RecordFlush(failed bool) {
	if m == nil {
		return
	}
	m.FlushesTotal.Inc()
	if failed {
		m.FlushFailures.Inc()
	}
}
