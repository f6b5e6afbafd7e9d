// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/javinobile/Gauvendi-sub006/internal/models/pms"
)

type fakeResolver struct {
	mu     sync.Mutex
	exists bool
	calls  int
	err    error
}

func (r *fakeResolver) BookingExists(_ context.Context, mappingCode, hotelCode string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.exists, r.err
}

func (r *fakeResolver) setExists(v bool) {
	r.mu.Lock()
	r.exists = v
	r.mu.Unlock()
}

func (r *fakeResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fakeSyncers struct {
	reservations atomic.Int32
	blocks       atomic.Int32
	maintenance  atomic.Int32
	folios       atomic.Int32
	err          error
}

func (s *fakeSyncers) SyncReservation(context.Context, pms.WebhookPayload) error {
	s.reservations.Add(1)
	return s.err
}
func (s *fakeSyncers) SyncBlock(context.Context, pms.WebhookPayload) error {
	s.blocks.Add(1)
	return s.err
}
func (s *fakeSyncers) SyncMaintenance(context.Context, pms.WebhookPayload) error {
	s.maintenance.Add(1)
	return s.err
}
func (s *fakeSyncers) SyncFolio(context.Context, pms.WebhookPayload) error {
	s.folios.Add(1)
	return s.err
}

func (s *fakeSyncers) bundle() Syncers {
	return Syncers{Reservation: s, Block: s, Maintenance: s, Folio: s}
}

// startPipeline runs a pipeline against an in-memory queue with a short
// requeue delay and tears both down at test end.
func startPipeline(t *testing.T, resolver BookingResolver, syncers Syncers) *Pipeline {
	t.Helper()

	queue := NewInMemoryQueue(16, nil)
	cfg := PipelineConfig{
		RequeueDelay:  10 * time.Millisecond,
		MaxRetryCount: 5,
		CloseTimeout:  5 * time.Second,
	}

	p, err := NewPipeline(cfg, queue, resolver, syncers, nil)
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			t.Errorf("pipeline run: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = queue.Close()
	})

	select {
	case <-p.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not start")
	}
	return p
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func reservationEvent(entityCode string) pms.WebhookPayload {
	return pms.WebhookPayload{
		MappingEntityCode: entityCode,
		MappingHotelCode:  "HOTEL1",
		EventType:         pms.EventReservationCreated,
	}
}

func TestPipelineRequeuesThenSyncsOnce(t *testing.T) {
	resolver := &fakeResolver{}
	syncers := &fakeSyncers{}
	p := startPipeline(t, resolver, syncers.bundle())

	// Webhook for "ABC123-1" arrives before booking "ABC123" exists.
	if err := p.Enqueue(context.Background(), reservationEvent("ABC123-1")); err != nil {
		t.Fatalf("Enqueue() error: %v", err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return resolver.callCount() >= 1 }) {
		t.Fatal("booking was never resolved")
	}

	// The booking materializes; the requeued job must now succeed.
	resolver.setExists(true)

	if !waitFor(t, 2*time.Second, func() bool { return syncers.reservations.Load() == 1 }) {
		t.Fatalf("reservation syncs = %d, want 1", syncers.reservations.Load())
	}
	if calls := resolver.callCount(); calls < 2 {
		t.Errorf("resolve calls = %d, want at least 2 (initial miss plus requeued attempt)", calls)
	}

	// No further deliveries after success.
	time.Sleep(50 * time.Millisecond)
	if got := syncers.reservations.Load(); got != 1 {
		t.Errorf("reservation syncs after settling = %d, want exactly 1", got)
	}
}

func TestPipelineBoundedRetry(t *testing.T) {
	resolver := &fakeResolver{} // booking never appears
	syncers := &fakeSyncers{}
	p := startPipeline(t, resolver, syncers.bundle())

	if err := p.Enqueue(context.Background(), reservationEvent("GHOST-1")); err != nil {
		t.Fatalf("Enqueue() error: %v", err)
	}

	// Initial attempt plus five requeues, then the job is dropped.
	const wantResolves = 6
	if !waitFor(t, 3*time.Second, func() bool { return resolver.callCount() >= wantResolves }) {
		t.Fatalf("resolve calls = %d, want %d", resolver.callCount(), wantResolves)
	}

	// Settle past several more requeue windows: no sixth requeue may fire.
	time.Sleep(100 * time.Millisecond)
	if got := resolver.callCount(); got != wantResolves {
		t.Errorf("resolve calls after cap = %d, want exactly %d", got, wantResolves)
	}
	if got := syncers.reservations.Load(); got != 0 {
		t.Errorf("dropped event was processed %d times", got)
	}
}

func TestPipelineDispatchByEventType(t *testing.T) {
	resolver := &fakeResolver{exists: true}
	syncers := &fakeSyncers{}
	p := startPipeline(t, resolver, syncers.bundle())

	events := []string{
		pms.EventReservationChanged,
		pms.EventBlockChanged,
		pms.EventMaintenanceChanged,
		pms.EventFolioPayment,
	}
	for _, eventType := range events {
		err := p.Enqueue(context.Background(), pms.WebhookPayload{
			MappingEntityCode: "ABC123-1",
			MappingHotelCode:  "HOTEL1",
			EventType:         eventType,
		})
		if err != nil {
			t.Fatalf("Enqueue(%s) error: %v", eventType, err)
		}
	}

	ok := waitFor(t, 2*time.Second, func() bool {
		return syncers.reservations.Load() == 1 &&
			syncers.blocks.Load() == 1 &&
			syncers.maintenance.Load() == 1 &&
			syncers.folios.Load() == 1
	})
	if !ok {
		t.Errorf("dispatch counts = res:%d block:%d maint:%d folio:%d, want 1 each",
			syncers.reservations.Load(), syncers.blocks.Load(),
			syncers.maintenance.Load(), syncers.folios.Load())
	}
}

func TestPipelineDropsUnknownEventType(t *testing.T) {
	resolver := &fakeResolver{exists: true}
	syncers := &fakeSyncers{}
	p := startPipeline(t, resolver, syncers.bundle())

	err := p.Enqueue(context.Background(), pms.WebhookPayload{
		MappingEntityCode: "ABC123-1",
		MappingHotelCode:  "HOTEL1",
		EventType:         "SOMETHING_NEW",
	})
	if err != nil {
		t.Fatalf("Enqueue() error: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if resolver.callCount() != 0 {
		t.Error("unknown event type reached the resolver")
	}
	total := syncers.reservations.Load() + syncers.blocks.Load() +
		syncers.maintenance.Load() + syncers.folios.Load()
	if total != 0 {
		t.Errorf("unknown event type was dispatched %d times", total)
	}
}

func TestPipelineDropsMissingIdentifiers(t *testing.T) {
	resolver := &fakeResolver{exists: true}
	syncers := &fakeSyncers{}
	p := startPipeline(t, resolver, syncers.bundle())

	err := p.Enqueue(context.Background(), pms.WebhookPayload{
		MappingEntityCode: "-1", // empty mapping code after the delimiter split
		MappingHotelCode:  "HOTEL1",
		EventType:         pms.EventReservationCreated,
	})
	if err != nil {
		t.Fatalf("Enqueue() error: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if resolver.callCount() != 0 {
		t.Error("job with missing identifiers reached the resolver")
	}
	if syncers.reservations.Load() != 0 {
		t.Error("job with missing identifiers was dispatched")
	}
}

func TestPipelineRequeuesSyncerFailure(t *testing.T) {
	resolver := &fakeResolver{exists: true}
	syncers := &fakeSyncers{err: errors.New("downstream unavailable")}
	p := startPipeline(t, resolver, syncers.bundle())

	if err := p.Enqueue(context.Background(), reservationEvent("ABC123-1")); err != nil {
		t.Fatalf("Enqueue() error: %v", err)
	}

	// Failing sync attempts are re-driven through the same bounded requeue:
	// initial attempt plus five retries.
	const wantAttempts = 6
	if !waitFor(t, 3*time.Second, func() bool { return syncers.reservations.Load() >= wantAttempts }) {
		t.Fatalf("sync attempts = %d, want %d", syncers.reservations.Load(), wantAttempts)
	}

	time.Sleep(100 * time.Millisecond)
	if got := syncers.reservations.Load(); got != wantAttempts {
		t.Errorf("sync attempts after cap = %d, want exactly %d", got, wantAttempts)
	}
}

func TestPipelineResolverErrorRetried(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("store offline")}
	syncers := &fakeSyncers{}
	p := startPipeline(t, resolver, syncers.bundle())

	if err := p.Enqueue(context.Background(), reservationEvent("ABC123-1")); err != nil {
		t.Fatalf("Enqueue() error: %v", err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return resolver.callCount() >= 2 }) {
		t.Errorf("resolve calls = %d, want retry after resolver error", resolver.callCount())
	}

	// The store recovers mid-retry; the next attempt must succeed.
	resolver.mu.Lock()
	resolver.err = nil
	resolver.exists = true
	resolver.mu.Unlock()

	if !waitFor(t, 2*time.Second, func() bool { return syncers.reservations.Load() == 1 }) {
		t.Errorf("reservation syncs = %d, want 1 after recovery", syncers.reservations.Load())
	}
}
