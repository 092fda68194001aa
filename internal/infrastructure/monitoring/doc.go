// Package monitoring provides Prometheus metrics for the service:
// HTTP request counters and latency histograms, file operation
// outcomes, and script execution outcomes and durations. Metrics are
// registered on a dedicated registry exposed at /metrics.
package monitoring
