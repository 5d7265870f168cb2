// Package metrics defines and registers all custom Prometheus metrics for the
// storewatch monitor. It is the single source of truth for metric names,
// labels, and help strings. Metrics self-register with the default registry
// at import time via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storewatch"

// ── Worker metrics ────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts by outcome.
// Label:
//   - result: "ok", "rejected" (upstream said no), or "error" (transport/parse)
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of upstream login attempts, by result.",
	},
	[]string{"result"},
)

// SelloutChecksTotal counts sellout catalog polls by outcome.
// Label:
//   - result: "detected", "empty", or "error"
var SelloutChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sellout_checks_total",
		Help:      "Total number of sellout checks, by result.",
	},
	[]string{"result"},
)

// RestocksTotal counts restock submissions by outcome.
// Label:
//   - result: "ok", "rejected", or "error"
var RestocksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "restocks_total",
		Help:      "Total number of restock submissions, by result.",
	},
	[]string{"result"},
)

// SalesChecksTotal counts sales-figure polls by outcome.
// Label:
//   - result: "ok", "malformed", or "error"
var SalesChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sales_checks_total",
		Help:      "Total number of sales polls, by result.",
	},
	[]string{"result"},
)

// ── Supervisor metrics ────────────────────────────────────────────────────────

// WorkersActive tracks the number of currently running account workers.
var WorkersActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "workers_active",
		Help:      "Number of account workers currently running.",
	},
)

// WorkerRestartsTotal counts crash-triggered worker restarts. Intentional
// stops (disable, delete, password rotation) are not counted.
var WorkerRestartsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "worker_restarts_total",
		Help:      "Total number of worker restarts scheduled after a crash.",
	},
)

// ── Push metrics ──────────────────────────────────────────────────────────────

// PushesTotal counts sales-summary push deliveries by outcome.
// Label:
//   - result: "ok" or "error"
var PushesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pushes_total",
		Help:      "Total number of sales summary pushes, by result.",
	},
	[]string{"result"},
)

// ── Upstream metrics ──────────────────────────────────────────────────────────

// UpstreamRequestDuration measures upstream admin-API call latency.
// Label:
//   - endpoint: "login", "products", "restock", or "sales"
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of upstream admin API requests, by endpoint.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"endpoint"},
)
