// Package metrics exposes Prometheus collectors for the complaint lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ComplaintsCreatedTotal counts accepted intakes by ownership.
	ComplaintsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civicdesk",
			Subsystem: "intake",
			Name:      "complaints_created_total",
			Help:      "Total number of complaints accepted at intake",
		},
		[]string{"ownership"},
	)

	// TrackingCodeRetriesTotal counts intake attempts lost to a tracking code collision.
	TrackingCodeRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "civicdesk",
			Subsystem: "intake",
			Name:      "tracking_code_retries_total",
			Help:      "Total number of intake attempts retried after a tracking code collision",
		},
	)

	// JurisdictionResolutionsTotal counts resolver outcomes.
	JurisdictionResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civicdesk",
			Subsystem: "intake",
			Name:      "jurisdiction_resolutions_total",
			Help:      "Jurisdiction resolution outcomes (assigned, unassigned, ambiguous, degraded)",
		},
		[]string{"outcome"},
	)

	// TransitionsTotal counts transition requests by target status and result.
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civicdesk",
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Total number of status transition requests by target and result",
		},
		[]string{"to", "result"},
	)

	// TransitionRetriesTotal counts transitions retried after a stale read.
	TransitionRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "civicdesk",
			Subsystem: "lifecycle",
			Name:      "transition_retries_total",
			Help:      "Total number of transition attempts retried after a concurrent write",
		},
	)

	// EventHandlerFailuresTotal counts post-commit handler failures.
	EventHandlerFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civicdesk",
			Subsystem: "lifecycle",
			Name:      "event_handler_failures_total",
			Help:      "Total number of post-commit event handler failures",
		},
		[]string{"handler", "event"},
	)

	// NotificationsCreatedTotal counts notifications written by kind.
	NotificationsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civicdesk",
			Subsystem: "notification",
			Name:      "created_total",
			Help:      "Total number of notifications created by kind",
		},
		[]string{"kind"},
	)

	// NotificationDeliveryFailuresTotal counts notifications given up after retries.
	NotificationDeliveryFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "civicdesk",
			Subsystem: "notification",
			Name:      "delivery_failures_total",
			Help:      "Total number of notifications that could not be stored after retries",
		},
	)

	// CacheErrorsTotal counts best-effort cache failures.
	CacheErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civicdesk",
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Total number of cache operation failures",
		},
		[]string{"op"},
	)

	// HTTPRequestsTotal counts API requests by route pattern and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civicdesk",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks API latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "civicdesk",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)
)
