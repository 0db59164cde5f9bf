// Package metrics provides Prometheus metrics for the Sentriq backend
// (RED + authorization decisions + platform lookups).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sentriq"

var (
	// HTTPRequestTotal counts requests by method, path, status (RED: rate).
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, path, and status.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDurationSeconds is request latency histogram (RED: duration).
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10), // 1ms to ~9.3s
		},
		[]string{"method", "path"},
	)

	// AuthzDecisionsTotal counts permission decisions by outcome and reason.
	AuthzDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authz_decisions_total",
			Help:      "Permission evaluator decisions by outcome and reason.",
		},
		[]string{"outcome", "reason"},
	)

	// PlatformLookupRetriesTotal counts retried agent-platform lookups.
	PlatformLookupRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "platform_lookup_retries_total",
			Help:      "Total retried lookups against the agent-management platform.",
		},
	)

	// PlatformLookupFailuresTotal counts lookups that exhausted retries.
	PlatformLookupFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "platform_lookup_failures_total",
			Help:      "Agent-management platform lookups that failed after retries.",
		},
	)

	// WebSocketConnectionsActive is current number of event-stream clients.
	WebSocketConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections_active",
			Help:      "Number of active WebSocket connections.",
		},
	)

	// DirectoryCacheHitsTotal counts agent-directory cache hits.
	DirectoryCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_cache_hits_total",
			Help:      "Total agent directory name resolution cache hits.",
		},
	)

	// DirectoryCacheMissesTotal counts agent-directory cache misses.
	DirectoryCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_cache_misses_total",
			Help:      "Total agent directory name resolution cache misses.",
		},
	)

	// PlatformBreakerState is the platform circuit breaker state
	// (0=closed, 1=open, 2=half-open).
	PlatformBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "platform_breaker_state",
			Help:      "Agent platform circuit breaker state (0=closed, 1=open, 2=half-open).",
		},
	)

	// PlatformBreakerTransitionsTotal counts breaker state transitions.
	PlatformBreakerTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "platform_breaker_transitions_total",
			Help:      "Total platform circuit breaker state transitions.",
		},
		[]string{"from", "to"},
	)
)
