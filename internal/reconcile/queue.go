// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Topics of the reconciliation queue.
const (
	JobsTopic   = "reconcile.jobs"
	PoisonTopic = "reconcile.poison"
)

// Queue is the job transport of the reconciliation pipeline. Delivery is
// at-least-once; deduplication and retry bounding are layered above.
type Queue interface {
	// Publish enqueues a job for immediate consumption.
	Publish(ctx context.Context, job Job) error
	// PublishDelayed enqueues a job after delay elapses. Only the job is
	// suspended, never a consumer.
	PublishDelayed(ctx context.Context, job Job, delay time.Duration) error
	// Subscriber exposes the consuming side for router wiring.
	Subscriber() message.Subscriber
	// Poison exposes the publisher used for the dead-letter topic.
	Poison() message.Publisher
	Close() error
}

// delayTimers tracks the pending timers behind PublishDelayed so a queue
// shutdown can cancel them instead of publishing into a closed transport.
type delayTimers struct {
	logger watermill.LoggerAdapter

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func newDelayTimers(logger watermill.LoggerAdapter) *delayTimers {
	return &delayTimers{logger: logger, timers: make(map[string]*time.Timer)}
}

// after runs publish once delay elapses, unless the scheduler was stopped.
func (d *delayTimers) after(delay time.Duration, publish func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("publish delayed job: queue closed")
	}

	id := uuid.NewString()
	d.timers[id] = time.AfterFunc(delay, func() {
		d.mu.Lock()
		delete(d.timers, id)
		closed := d.closed
		d.mu.Unlock()
		if closed {
			return
		}

		if err := publish(); err != nil {
			d.logger.Error("delayed publish failed", err, nil)
		}
	})
	return nil
}

func (d *delayTimers) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for id, t := range d.timers {
		t.Stop()
		delete(d.timers, id)
	}
}

// InMemoryQueue is the default, in-process queue built on Watermill's
// gochannel Pub/Sub. Delayed publishes are driven by timers that are
// cancelled on Close.
type InMemoryQueue struct {
	pubSub  *gochannel.GoChannel
	logger  watermill.LoggerAdapter
	delayed *delayTimers
}

// NewInMemoryQueue creates the in-process queue. bufferSize bounds the
// output channel of each subscription.
func NewInMemoryQueue(bufferSize int, logger watermill.LoggerAdapter) *InMemoryQueue {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	if bufferSize < 1 {
		bufferSize = 1
	}

	return &InMemoryQueue{
		pubSub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: int64(bufferSize),
		}, logger),
		logger:  logger,
		delayed: newDelayTimers(logger),
	}
}

func (q *InMemoryQueue) Publish(ctx context.Context, job Job) error {
	payload, err := job.Encode()
	if err != nil {
		return err
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.SetContext(ctx)
	if err := q.pubSub.Publish(JobsTopic, msg); err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// PublishDelayed schedules the job on a timer. The ctx governs only the
// enqueue attempt itself; a queue shutdown cancels pending timers.
func (q *InMemoryQueue) PublishDelayed(ctx context.Context, job Job, delay time.Duration) error {
	if delay <= 0 {
		return q.Publish(ctx, job)
	}
	return q.delayed.after(delay, func() error {
		return q.Publish(context.Background(), job)
	})
}

func (q *InMemoryQueue) Subscriber() message.Subscriber {
	return q.pubSub
}

func (q *InMemoryQueue) Poison() message.Publisher {
	return q.pubSub
}

// Close cancels pending delayed jobs and shuts the Pub/Sub down.
func (q *InMemoryQueue) Close() error {
	q.delayed.stop()
	return q.pubSub.Close()
}
