// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/javinobile/Gauvendi-sub006/internal/config"
	"github.com/javinobile/Gauvendi-sub006/internal/logging"
	"github.com/javinobile/Gauvendi-sub006/internal/metrics"
	"github.com/javinobile/Gauvendi-sub006/internal/models/pms"
)

// BookingResolver looks up whether the internal booking referenced by a
// webhook exists yet. Implemented by the persistence collaborator.
type BookingResolver interface {
	BookingExists(ctx context.Context, mappingCode, hotelCode string) (bool, error)
}

// Per-event-type reconciliation routines. Each re-fetches full current state
// from the PMS and applies an idempotent upsert, so replays are harmless.
type (
	ReservationSyncer interface {
		SyncReservation(ctx context.Context, payload pms.WebhookPayload) error
	}
	BlockSyncer interface {
		SyncBlock(ctx context.Context, payload pms.WebhookPayload) error
	}
	MaintenanceSyncer interface {
		SyncMaintenance(ctx context.Context, payload pms.WebhookPayload) error
	}
	FolioSyncer interface {
		SyncFolio(ctx context.Context, payload pms.WebhookPayload) error
	}
)

// Syncers bundles the downstream reconciliation routines.
type Syncers struct {
	Reservation ReservationSyncer
	Block       BlockSyncer
	Maintenance MaintenanceSyncer
	Folio       FolioSyncer
}

// PipelineConfig tunes the reconciliation pipeline.
type PipelineConfig struct {
	// RequeueDelay is the wait before a not-yet-resolvable job re-enters the
	// queue.
	RequeueDelay time.Duration

	// MaxRetryCount is the requeue cap; a job reaching it is dropped.
	MaxRetryCount int

	// CloseTimeout bounds how long Close waits for in-flight handlers.
	CloseTimeout time.Duration
}

// PipelineConfigFrom derives pipeline settings from the queue configuration.
func PipelineConfigFrom(cfg config.QueueConfig) PipelineConfig {
	return PipelineConfig{
		RequeueDelay:  cfg.RequeueDelay,
		MaxRetryCount: cfg.MaxRetryCount,
		CloseTimeout:  30 * time.Second,
	}
}

// Pipeline consumes reconciliation jobs and drives each through
// resolve -> dispatch, requeueing delayed re-attempts while the booking has
// not materialized. Delivery is at-least-once; correctness relies on
// idempotent upserts downstream, not on exactly-once transport.
type Pipeline struct {
	queue    Queue
	resolver BookingResolver
	syncers  Syncers
	cfg      PipelineConfig
	router   *message.Router
}

// NewPipeline wires the consuming router. Run must be called before jobs
// are processed.
func NewPipeline(
	cfg PipelineConfig,
	queue Queue,
	resolver BookingResolver,
	syncers Syncers,
	logger watermill.LoggerAdapter,
) (*Pipeline, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	if cfg.MaxRetryCount < 1 {
		return nil, fmt.Errorf("max retry count must be positive, got %d", cfg.MaxRetryCount)
	}

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	p := &Pipeline{
		queue:    queue,
		resolver: resolver,
		syncers:  syncers,
		cfg:      cfg,
		router:   router,
	}

	// Panics become errors; errors route to the poison topic. The generic
	// retry middleware is deliberately absent: re-attempts go through the
	// pipeline's own delayed requeue so the retry cap stays observable in
	// the job itself.
	router.AddMiddleware(middleware.Recoverer)
	poison, err := middleware.PoisonQueue(queue.Poison(), PoisonTopic)
	if err != nil {
		return nil, fmt.Errorf("create poison queue middleware: %w", err)
	}
	router.AddMiddleware(poison)

	router.AddConsumerHandler("reconcile-jobs", JobsTopic, queue.Subscriber(), p.handle)

	return p, nil
}

// Enqueue submits the initial, immediate job for an inbound webhook event.
func (p *Pipeline) Enqueue(ctx context.Context, payload pms.WebhookPayload) error {
	return p.queue.Publish(ctx, NewJob(payload))
}

// Run blocks consuming jobs until ctx is cancelled or Close is called.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.router.Run(ctx)
}

// Running is closed once the router is consuming.
func (p *Pipeline) Running() <-chan struct{} {
	return p.router.Running()
}

func (p *Pipeline) Close() error {
	return p.router.Close()
}

// handle processes one job. A nil return acks the message; a non-nil return
// escalates to the poison topic and is reserved for genuinely unexpected
// conditions such as an undecodable payload.
func (p *Pipeline) handle(msg *message.Message) error {
	start := time.Now()
	defer func() {
		metrics.ReconcileDuration.Observe(time.Since(start).Seconds())
	}()

	job, err := DecodeJob(msg.Payload)
	if err != nil {
		logging.Error().Err(err).Str("message_id", msg.UUID).Msg("undecodable reconciliation job")
		return err
	}

	ctx := msg.Context()
	eventType := job.Data.Body.EventType
	code := job.MappingCode()
	hotel := job.Data.Body.MappingHotelCode

	if code == "" || hotel == "" {
		// Missing identifiers are fatal for the job, never retried.
		logging.Error().
			Str("entity", job.Data.Body.MappingEntityCode).
			Str("hotel", hotel).
			Str("event_type", eventType).
			Msg("dropping job with missing identifiers")
		metrics.ReconcileJobsProcessed.WithLabelValues(eventType, "invalid").Inc()
		return nil
	}

	if !pms.IsKnownEventType(eventType) {
		logging.Warn().Str("event_type", eventType).Msg("no routine for event type, discarding")
		metrics.ReconcileJobsProcessed.WithLabelValues(eventType, "unknown").Inc()
		return nil
	}

	found, err := p.resolver.BookingExists(ctx, code, hotel)
	if err != nil {
		logging.Warn().Err(err).Str("mapping_code", code).Msg("booking resolution failed")
		return p.requeue(ctx, job, "resolve_error")
	}
	if !found {
		return p.requeue(ctx, job, "not_found")
	}

	if err := p.dispatch(ctx, job); err != nil {
		logging.Warn().Err(err).
			Str("mapping_code", code).
			Str("event_type", eventType).
			Msg("reconciliation routine failed")
		return p.requeue(ctx, job, "sync_error")
	}

	metrics.ReconcileJobsProcessed.WithLabelValues(eventType, "synced").Inc()
	logging.Debug().
		Str("mapping_code", code).
		Str("event_type", eventType).
		Int("retries", job.Data.RetryCount).
		Msg("webhook event reconciled")
	return nil
}

// requeue schedules a delayed re-attempt, or drops the job at the cap.
// Always acks the current delivery; the successor is a fresh message.
func (p *Pipeline) requeue(ctx context.Context, job Job, reason string) error {
	eventType := job.Data.Body.EventType

	if job.Exhausted(p.cfg.MaxRetryCount) {
		logging.Warn().
			Str("entity", job.Data.Body.MappingEntityCode).
			Str("event_type", eventType).
			Str("reason", reason).
			Int("retries", job.Data.RetryCount).
			Msg("retry cap reached, discarding webhook event")
		metrics.ReconcileJobsProcessed.WithLabelValues(eventType, "dropped").Inc()
		return nil
	}

	next := job.Requeue()
	if err := p.queue.PublishDelayed(ctx, next, p.cfg.RequeueDelay); err != nil {
		// Losing the requeue would silently drop the event, so escalate.
		return fmt.Errorf("requeue job: %w", err)
	}

	metrics.ReconcileRequeues.Inc()
	logging.Debug().
		Str("entity", job.Data.Body.MappingEntityCode).
		Str("reason", reason).
		Int("retry_count", next.Data.RetryCount).
		Dur("delay", p.cfg.RequeueDelay).
		Msg("webhook event requeued")
	return nil
}

// dispatch routes the job to the reconciliation routine for its event type.
func (p *Pipeline) dispatch(ctx context.Context, job Job) error {
	payload := job.Data.Body

	switch payload.EventType {
	case pms.EventReservationCreated, pms.EventReservationChanged, pms.EventReservationCanceled:
		return p.syncers.Reservation.SyncReservation(ctx, payload)
	case pms.EventBlockChanged:
		return p.syncers.Block.SyncBlock(ctx, payload)
	case pms.EventMaintenanceChanged:
		return p.syncers.Maintenance.SyncMaintenance(ctx, payload)
	case pms.EventFolioPayment:
		return p.syncers.Folio.SyncFolio(ctx, payload)
	default:
		// Unreachable: handle filters unknown event types first.
		return fmt.Errorf("no routine for event type %q", payload.EventType)
	}
}
