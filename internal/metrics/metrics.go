// Package metrics defines Prometheus metrics for shelfwatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shelfwatch"

// Polling metrics.
var (
	PollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "polls_total",
		Help:      "Total number of completed poll cycles, by resulting status.",
	}, []string{"status"})

	PollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "poll_duration_seconds",
		Help:      "Duration of one poll cycle (acquire + extract + decide) in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	AcquisitionFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "acquisition_failures_total",
		Help:      "Total number of page acquisitions that failed (network, timeout).",
	})
)

// Extraction metrics.
var (
	ExtractionFieldsFound = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "extraction_fields_found_total",
		Help:      "Snapshot fields populated by extraction, by field.",
	}, []string{"field"})
)

// Notification metrics.
var (
	NotificationsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of notifications delivered.",
	})

	NotificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Total number of notification deliveries that failed.",
	})
)

// State store metrics.
var (
	StateWriteFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "state_write_failures_total",
		Help:      "Total number of state persistence failures.",
	})
)
