// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

// Package metrics provides Prometheus instrumentation for the sync engine.
//
// Metrics are exposed on /metrics in Prometheus text format. Collectors are
// registered with promauto at package load; subsystems update them directly.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Webhook intake metrics

	// WebhookEventsReceived counts inbound webhook events by event type.
	WebhookEventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_received_total",
			Help: "Total webhook events received from the PMS",
		},
		[]string{"event_type"},
	)

	// WebhookEventsDeduplicated counts events suppressed by the payload-hash window.
	WebhookEventsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_events_deduplicated_total",
			Help: "Webhook events suppressed as duplicates within the dedup window",
		},
	)

	// WebhookEventsRejected counts events rejected before enqueue.
	WebhookEventsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_rejected_total",
			Help: "Webhook events rejected at intake",
		},
		[]string{"reason"},
	)

	// Reconciliation pipeline metrics

	// ReconcileJobsProcessed counts jobs by terminal outcome
	// (synced, requeued, dropped, failed).
	ReconcileJobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_jobs_total",
			Help: "Reconciliation jobs by outcome",
		},
		[]string{"event_type", "outcome"},
	)

	// ReconcileRequeues counts delayed requeues by retry number.
	ReconcileRequeues = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_requeues_total",
			Help: "Delayed requeues of reconciliation jobs",
		},
	)

	// ReconcileDuration measures end-to-end handling time per job.
	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reconcile_duration_seconds",
			Help:    "Reconciliation job handling duration",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30},
		},
	)

	// Outbound push metrics

	// PushItemsTotal counts pushed items by terminal state
	// (succeeded, failed, retry_exhausted).
	PushItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_items_total",
			Help: "Push items by terminal state",
		},
		[]string{"state"},
	)

	// PushBatchDuration measures batch execution time.
	PushBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "push_batch_duration_seconds",
			Help:    "Push batch execution duration",
			Buckets: []float64{.05, .1, .5, 1, 5, 10, 30, 60},
		},
	)

	// PushRateLimitRetries counts 429-triggered retries.
	PushRateLimitRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "push_rate_limit_retries_total",
			Help: "Retries caused by PMS rate limiting (HTTP 429)",
		},
	)

	// ClassifierDroppedRestrictions counts restriction entries dropped for
	// missing PMS mappings.
	ClassifierDroppedRestrictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "classifier_dropped_restrictions_total",
			Help: "Restriction entries dropped due to missing PMS mappings",
		},
	)

	// PMS client metrics

	// PMSRequestsTotal counts PMS API calls by method and status class.
	PMSRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pms_requests_total",
			Help: "PMS API requests by method and status class",
		},
		[]string{"method", "status"},
	)

	// TokenCacheHits / TokenCacheMisses track access-token cache efficiency.
	TokenCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pms_token_cache_hits_total",
			Help: "Access token cache hits",
		},
	)
	TokenCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pms_token_cache_misses_total",
			Help: "Access token cache misses (token exchanges)",
		},
	)

	// Circuit breaker metrics

	// CircuitBreakerState reports the breaker state (0=closed, 1=half-open, 2=open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerTransitions counts state transitions.
	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)
