// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

//go:build nats

package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"

	"github.com/javinobile/Gauvendi-sub006/internal/config"
)

// NATSQueue backs the reconciliation queue with JetStream so jobs survive
// process restarts and can be consumed by several instances in one queue
// group.
type NATSQueue struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter
	delayed    *delayTimers
}

// NewNATSQueue connects publisher and subscriber to the configured server.
func NewNATSQueue(cfg config.NATSConfig, logger watermill.LoggerAdapter) (*NATSQueue, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("nats disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("nats reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: 4,
		AckWaitTimeout:   30 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			DurablePrefix: cfg.DurableName,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.MaxAckPending(256),
				natsgo.AckWait(30 * time.Second),
				natsgo.DeliverNew(),
			},
		},
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create nats subscriber: %w", err)
	}

	return &NATSQueue{
		publisher:  pub,
		subscriber: sub,
		logger:     logger,
		delayed:    newDelayTimers(logger),
	}, nil
}

func (q *NATSQueue) Publish(ctx context.Context, job Job) error {
	payload, err := job.Encode()
	if err != nil {
		return err
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.SetContext(ctx)
	if err := q.publisher.Publish(JobsTopic, msg); err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// PublishDelayed schedules via a local timer: JetStream has no native
// per-message delay outside of consumer backoff, and the requeue window is
// short enough that losing a pending timer on crash only costs one webhook
// redelivery.
func (q *NATSQueue) PublishDelayed(ctx context.Context, job Job, delay time.Duration) error {
	if delay <= 0 {
		return q.Publish(ctx, job)
	}
	return q.delayed.after(delay, func() error {
		return q.Publish(context.Background(), job)
	})
}

func (q *NATSQueue) Subscriber() message.Subscriber {
	return q.subscriber
}

func (q *NATSQueue) Poison() message.Publisher {
	return q.publisher
}

func (q *NATSQueue) Close() error {
	q.delayed.stop()
	if err := q.publisher.Close(); err != nil {
		return err
	}
	return q.subscriber.Close()
}
