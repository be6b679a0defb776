// Package metrics provides Prometheus metrics for the NYTimes proxy.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "nytimes"

var (
	// UpstreamAttempts counts individual HTTP attempts against the upstream API.
	UpstreamAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_attempts_total",
			Help:      "Total number of upstream HTTP attempts by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	// UpstreamFailures counts terminal fetch failures by error kind.
	UpstreamFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_failures_total",
			Help:      "Total number of upstream calls that failed after retries",
		},
		[]string{"endpoint", "kind"},
	)

	// UpstreamDuration measures a whole fetch including backoff waits.
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_fetch_duration_seconds",
			Help:      "Duration of upstream fetches including retries",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"endpoint"},
	)

	// SkippedItems counts upstream records dropped as malformed.
	SkippedItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_items_total",
			Help:      "Total number of malformed upstream records dropped",
		},
		[]string{"kind"},
	)

	// HTTPRequests counts inbound requests by route and status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of inbound HTTP requests",
		},
		[]string{"path", "code"},
	)
)

// RecordAttempt records one upstream HTTP attempt.
func RecordAttempt(endpoint, outcome string) {
	UpstreamAttempts.WithLabelValues(endpoint, outcome).Inc()
}

// RecordFetch records a finished upstream fetch. kind is empty on success.
func RecordFetch(endpoint, kind string, seconds float64) {
	UpstreamDuration.WithLabelValues(endpoint).Observe(seconds)
	if kind != "" {
		UpstreamFailures.WithLabelValues(endpoint, kind).Inc()
	}
}

// RecordSkipped records a dropped upstream record.
func RecordSkipped(kind string) {
	SkippedItems.WithLabelValues(kind).Inc()
}
