// Package monitoring provides Prometheus metrics for the demo services.
//
// The harness itself does not aggregate trace metrics; this package only
// covers ambient process observability: HTTP request counts/latency and the
// export pipeline's enqueue/export/drop counters.
//
// Metrics are registered via promauto. Tests construct their collectors with
// NewMetricsWith and a private registry to avoid duplicate registration.
package monitoring
