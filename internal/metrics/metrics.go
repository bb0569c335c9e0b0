// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EntriesStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mindmirror",
			Name:      "entries_stored_total",
			Help:      "Entry inserts by backend mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)

	DegradedReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mindmirror",
			Name:      "entry_reads_degraded_total",
			Help:      "Reads that returned an empty result because the backend failed.",
		},
		[]string{"mode"},
	)

	AnalysisFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mindmirror",
			Name:      "analysis_fallbacks_total",
			Help:      "Analysis or reflection calls answered with the fixed fallback.",
		},
		[]string{"stage"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mindmirror",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route template and status code.",
		},
		[]string{"route", "code"},
	)

	DigestsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mindmirror",
			Name:      "digests_sent_total",
			Help:      "Weekly digests by outcome.",
		},
		[]string{"outcome"},
	)
)

var OutboxJobs = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "mindmirror",
		Name:      "outbox_jobs_total",
		Help:      "Outbox rows applied to the search index by op and outcome.",
	},
	[]string{"op", "outcome"},
)
