// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/javinobile/Gauvendi-sub006/internal/models/pms"
)

func TestInMemoryQueueRoundTrip(t *testing.T) {
	q := NewInMemoryQueue(4, nil)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := q.Subscriber().Subscribe(ctx, JobsTopic)
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	job := NewJob(pms.WebhookPayload{MappingEntityCode: "ABC123-1", EventType: pms.EventBlockChanged})
	if err := q.Publish(ctx, job); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	select {
	case msg := <-msgs:
		got, err := DecodeJob(msg.Payload)
		if err != nil {
			t.Fatalf("DecodeJob() error: %v", err)
		}
		if got.Data.Body.MappingEntityCode != "ABC123-1" {
			t.Errorf("delivered entity = %q", got.Data.Body.MappingEntityCode)
		}
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("message never delivered")
	}
}

func TestInMemoryQueueDelayedPublish(t *testing.T) {
	q := NewInMemoryQueue(4, nil)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := q.Subscriber().Subscribe(ctx, JobsTopic)
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	const delay = 50 * time.Millisecond
	start := time.Now()
	if err := q.PublishDelayed(ctx, NewJob(pms.WebhookPayload{}), delay); err != nil {
		t.Fatalf("PublishDelayed() error: %v", err)
	}

	select {
	case msg := <-msgs:
		if elapsed := time.Since(start); elapsed < delay {
			t.Errorf("delivered after %v, want at least %v", elapsed, delay)
		}
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("delayed message never delivered")
	}
}

func TestInMemoryQueueCloseCancelsPendingTimers(t *testing.T) {
	q := NewInMemoryQueue(4, nil)

	if err := q.PublishDelayed(context.Background(), NewJob(pms.WebhookPayload{}), time.Hour); err != nil {
		t.Fatalf("PublishDelayed() error: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	// Further delayed publishes must be refused, not silently dropped.
	if err := q.PublishDelayed(context.Background(), NewJob(pms.WebhookPayload{}), time.Millisecond); err == nil {
		t.Error("PublishDelayed() after Close succeeded")
	}
}
