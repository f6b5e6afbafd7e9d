// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

//go:build !nats

package main

import (
	"github.com/ThreeDotsLabs/watermill"

	"github.com/javinobile/Gauvendi-sub006/internal/config"
	"github.com/javinobile/Gauvendi-sub006/internal/logging"
	"github.com/javinobile/Gauvendi-sub006/internal/reconcile"
)

// buildQueue returns the in-process queue. The NATS transport requires the
// nats build tag.
func buildQueue(cfg *config.Config, logger watermill.LoggerAdapter) (reconcile.Queue, error) {
	if cfg.NATS.Enabled {
		logging.Warn().Msg("nats.enabled set but binary built without nats tag, using in-process queue")
	}
	return reconcile.NewInMemoryQueue(cfg.Queue.BufferSize, logger), nil
}
