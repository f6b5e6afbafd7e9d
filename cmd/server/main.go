// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

// Gauvendi Sync keeps hotel inventory aligned with an external Property
// Management System: inbound PMS webhooks are reconciled through a delayed
// requeue pipeline, and local restriction changes are pushed back out under
// the provider's rate budget.
//
// Configuration is layered: built-in defaults, then a YAML file (CONFIG_PATH
// or ./config.yaml), then GVD_* environment variables, e.g.
//
//	GVD_PMS_BASE_URL=https://api.pms.example \
//	GVD_PMS_IDENTITY_URL=https://identity.pms.example/token \
//	GVD_SERVER_WEBHOOK_SECRET=... \
//	server
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/javinobile/Gauvendi-sub006/internal/config"
	"github.com/javinobile/Gauvendi-sub006/internal/logging"
	"github.com/javinobile/Gauvendi-sub006/internal/pmsapi"
	"github.com/javinobile/Gauvendi-sub006/internal/reconcile"
	"github.com/javinobile/Gauvendi-sub006/internal/supervisor"
	"github.com/javinobile/Gauvendi-sub006/internal/sync"
	"github.com/javinobile/Gauvendi-sub006/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("pms_base_url", cfg.PMS.BaseURL).
		Bool("nats", cfg.NATS.Enabled).
		Msg("starting gauvendi sync")

	wmLogger := watermill.NewStdLogger(false, false)
	queue, err := buildQueue(cfg, wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build job queue")
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing queue")
		}
	}()

	client := pmsapi.NewClient(cfg.PMS, pmsapi.NewTokenCache(cfg.PMS))
	store := sync.NewMemoryStore()
	syncer := sync.NewSyncer(client, store)

	pipeline, err := reconcile.NewPipeline(
		reconcile.PipelineConfigFrom(cfg.Queue),
		queue,
		syncer,
		reconcile.Syncers{
			Reservation: syncer,
			Block:       syncer,
			Maintenance: syncer,
			Folio:       syncer,
		},
		wmLogger,
	)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build reconciliation pipeline")
	}

	deduper := reconcile.NewDeduper(cfg.Queue.DedupTTL)
	server := webhook.NewServer(cfg.Server, pipeline, deduper)

	treeCfg := supervisor.DefaultTreeConfig()
	slogger := slog.New(logging.NewSlogHandler())
	tree := supervisor.NewTree(slogger, treeCfg)
	tree.AddProcessing(supervisor.NewPipelineService(pipeline))
	tree.AddIntake(supervisor.NewHTTPService(server, treeCfg.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("supervisor tree exited")
		os.Exit(1)
	}
	logging.Info().Msg("shutdown complete")
}
