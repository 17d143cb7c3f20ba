// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Transitions counts workflow transitions by workflow, transition and result.
	Transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundledger",
			Name:      "workflow_transitions_total",
			Help:      "Workflow transitions by workflow, transition and result.",
		},
		[]string{"workflow", "transition", "result"},
	)

	// LedgerEntries counts appended audit transactions by type.
	LedgerEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundledger",
			Name:      "ledger_entries_total",
			Help:      "Fund transactions appended by type.",
		},
		[]string{"type"},
	)

	// VersionConflicts counts wallet writes that lost the version check.
	VersionConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fundledger",
			Name:      "wallet_version_conflicts_total",
			Help:      "Wallet writes retried after a version conflict.",
		},
	)

	// ProfitPaid sums profit credited to wallets by mode.
	ProfitPaid = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundledger",
			Name:      "profit_paid_amount_total",
			Help:      "Profit credited to wallets, by distribution mode.",
		},
		[]string{"mode"},
	)

	// GatewayCalls counts payout gateway calls by gateway and result.
	GatewayCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundledger",
			Name:      "gateway_calls_total",
			Help:      "Payout gateway calls by gateway and result.",
		},
		[]string{"gateway", "result"},
	)

	// OutboxDeliveries counts outbox delivery attempts by result.
	OutboxDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundledger",
			Name:      "outbox_deliveries_total",
			Help:      "Notification outbox delivery attempts by result.",
		},
		[]string{"result"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundledger",
			Name:      "http_requests_total",
			Help:      "Admin API requests by route, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fundledger",
			Name:      "http_request_duration_seconds",
			Help:      "Admin API request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

func init() {
	prometheus.MustRegister(
		Transitions,
		LedgerEntries,
		VersionConflicts,
		ProfitPaid,
		GatewayCalls,
		OutboxDeliveries,
		httpRequestsTotal,
		httpRequestDuration,
	)
}

// Result maps an error to the "ok"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// GinMiddleware records request counts and latency per matched route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
