// Package metrics defines Prometheus metrics for the graph builder.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphbuilder_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphbuilder_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "graphbuilder_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphbuilder_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	TraversalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphbuilder_traversals_total",
			Help: "Traversals by terminal state",
		},
		[]string{"state"},
	)

	TraversalLayers = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphbuilder_traversal_layers",
			Help:    "BFS layers executed per completed traversal",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
	)

	TraversalAccounts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphbuilder_traversal_accounts",
			Help:    "Accounts reached per completed traversal",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		},
	)

	LookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphbuilder_lookup_duration_seconds",
			Help:    "Connector and connection lookup duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"connector_type", "op"},
	)

	LookupFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphbuilder_lookup_failures_total",
			Help: "Failed lookups by connector type and operation",
		},
		[]string{"connector_type", "op"},
	)

	LookupRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphbuilder_lookup_retries_total",
			Help: "Lookup attempts retried after a transient failure",
		},
		[]string{"connector_type", "op"},
	)

	StreamConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "graphbuilder_stream_connections",
			Help: "Active traversal progress WebSocket connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, RequestsInFlight, ErrorsTotal,
		TraversalsTotal, TraversalLayers, TraversalAccounts,
		LookupDuration, LookupFailures, LookupRetries,
		StreamConnections,
	)
}
