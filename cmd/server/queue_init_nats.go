// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

//go:build nats

package main

import (
	"github.com/ThreeDotsLabs/watermill"

	"github.com/javinobile/Gauvendi-sub006/internal/config"
	"github.com/javinobile/Gauvendi-sub006/internal/logging"
	"github.com/javinobile/Gauvendi-sub006/internal/reconcile"
)

// buildQueue returns the JetStream-backed queue when enabled, otherwise the
// in-process one.
func buildQueue(cfg *config.Config, logger watermill.LoggerAdapter) (reconcile.Queue, error) {
	if !cfg.NATS.Enabled {
		return reconcile.NewInMemoryQueue(cfg.Queue.BufferSize, logger), nil
	}

	logging.Info().Str("url", cfg.NATS.URL).Str("durable", cfg.NATS.DurableName).Msg("using nats queue")
	return reconcile.NewNATSQueue(cfg.NATS, logger)
}
