// Package metrics provides Prometheus instrumentation for fraudguard.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TransactionsTotal counts processed transactions by result.
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudguard",
			Name:      "transactions_total",
			Help:      "Total transactions processed by result (scored, invalid, alerted).",
		},
		[]string{"result"},
	)

	// RuleHitsTotal counts rule triggers by rule identifier.
	RuleHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudguard",
			Name:      "rule_hits_total",
			Help:      "Total rule triggers by rule.",
		},
		[]string{"rule"},
	)

	// RiskScore observes the distribution of computed risk scores.
	RiskScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fraudguard",
			Name:      "risk_score",
			Help:      "Distribution of risk scores.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	// StateWriteFailures counts failed velocity state writes.
	StateWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fraudguard",
			Name:      "state_write_failures_total",
			Help:      "Total velocity state writes that failed.",
		},
	)

	// ArchiveFailures counts failed archive writes by operation.
	ArchiveFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudguard",
			Name:      "archive_failures_total",
			Help:      "Total archive writes that failed, by operation.",
		},
		[]string{"op"},
	)

	// NotifyFailures counts failed alert deliveries.
	NotifyFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fraudguard",
			Name:      "notify_failures_total",
			Help:      "Total alert publishes that failed.",
		},
	)
)

// Register installs all collectors on the default registerer. Call once at
// startup.
func Register() {
	prometheus.MustRegister(
		TransactionsTotal,
		RuleHitsTotal,
		RiskScore,
		StateWriteFailures,
		ArchiveFailures,
		NotifyFailures,
	)
}

// Handler serves the scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
