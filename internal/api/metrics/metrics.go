// Package metrics defines and registers all custom Prometheus metrics for the
// toolbox API. It is the single source of truth for metric names, labels, and
// help strings.
//
// All metrics are registered with the default Prometheus registry through
// promauto when the package is first imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "toolbox"

// ── Favorites metrics ────────────────────────────────────────────────────────

// FavoriteTogglesTotal counts favorite toggles by outcome.
// Label:
//   - result: "favorited", "unfavorited", "rolled_back", "in_flight", or "rejected"
var FavoriteTogglesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "favorite_toggles_total",
		Help:      "Total number of favorite toggles, by outcome.",
	},
	[]string{"result"},
)

// LikesReconciledTotal counts likes counters rewritten by the reconciler.
var LikesReconciledTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "likes_reconciled_total",
		Help:      "Total number of likes counters corrected from the favorites table.",
	},
)

// ReconcileQueueDepth tracks the number of slugs waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ReconcileQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "reconcile_queue_depth",
		Help:      "Current number of slugs pending in each reconcile worker channel.",
	},
	[]string{"worker_id"},
)

// ReconcileDuration measures one slug reconciliation.
// Label:
//   - result: "changed", "unchanged", or "error"
var ReconcileDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "reconcile_duration_seconds",
		Help:      "Duration of a single likes reconciliation.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// ── Catalog metrics ──────────────────────────────────────────────────────────

// CatalogQueriesTotal counts catalog listings.
// Label:
//   - result: "ok" or "degraded"
var CatalogQueriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_queries_total",
		Help:      "Total number of catalog listings, by result.",
	},
	[]string{"result"},
)

// ── Preference & notification metrics ────────────────────────────────────────

// PreferencesRejectedTotal counts preference writes refused by validation.
// Label:
//   - reason: "read_only", "forbidden", "too_large", or "invalid"
var PreferencesRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "preferences_rejected_total",
		Help:      "Total number of rejected preference writes, by reason.",
	},
	[]string{"reason"},
)

// NotificationsTotal counts change notifications delivered to this instance.
// Label:
//   - origin: "local" or "remote"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of change notifications, by origin.",
	},
	[]string{"origin"},
)

// StreamClients tracks the number of open change streams.
var StreamClients = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stream_clients",
		Help:      "Number of connected change-stream clients.",
	},
)
