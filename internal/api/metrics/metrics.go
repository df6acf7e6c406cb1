// Package metrics defines all custom Prometheus metrics for the session
// agent. It is the single source of truth for metric names, labels, and
// help strings; promauto registers everything with the default registry
// at init time.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sessionagent"

// Logins counts login attempts by outcome.
// Labels:
//   - role: the role the caller logged in as ("user", "craftsman", ...)
//   - result: "ok", "rejected" (business refusal), or "error" (upstream fault)
var Logins = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by role and result.",
	},
	[]string{"role", "result"},
)

// RoleProbeAttempts counts individual probe requests made while resolving
// a persisted token with no stored role.
// Labels:
//   - role: the candidate role probed
//   - result: "hit" (probe resolved the role) or "miss"
var RoleProbeAttempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_probe_attempts_total",
		Help:      "Total number of role-probe profile fetches, by candidate role and result.",
	},
	[]string{"role", "result"},
)

// CredentialRejections counts forced session clears caused by the
// upstream explicitly refusing the held token.
var CredentialRejections = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credential_rejections_total",
		Help:      "Total number of sessions cleared after an upstream 401.",
	},
)

// RealtimeConnections counts realtime channel lifecycle events.
// Label:
//   - event: "connect" or "disconnect"
var RealtimeConnections = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_connections_total",
		Help:      "Total number of realtime channel connects and disconnects.",
	},
	[]string{"event"},
)

// BootstrapDuration measures how long initial session resolution takes,
// including role probing.
var BootstrapDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "bootstrap_duration_seconds",
		Help:      "Duration of initial session resolution at startup.",
		Buckets:   prometheus.DefBuckets,
	},
)
