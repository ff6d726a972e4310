// Package metrics defines the Prometheus metrics exported by the API. It is
// the single source of truth for metric names, labels, and help strings.
// Everything registers with the default registry at init; the router mounts
// promhttp on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "passguard"

// LoginsTotal counts login attempts by outcome.
// Label:
//   - outcome: "success", "invalid_credentials", "totp_required",
//     "totp_rejected", or "rate_limited"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// AccountWritesTotal counts vault write operations.
// Label:
//   - op: "create", "update", or "delete"
var AccountWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_writes_total",
		Help:      "Total number of vault write operations, by operation.",
	},
	[]string{"op"},
)

// RevealsTotal counts password decryptions served to clients.
var RevealsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reveals_total",
		Help:      "Total number of stored passwords revealed to their owner.",
	},
)

// RequestDuration measures HTTP request latency end-to-end.
// Labels:
//   - method: HTTP method
//   - path: registered route pattern, not the raw URL
//   - status: response status code
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests by route and status.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "path", "status"},
)
