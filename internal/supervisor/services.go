// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package supervisor

import (
	"context"
	"time"

	"github.com/javinobile/Gauvendi-sub006/internal/logging"
	"github.com/javinobile/Gauvendi-sub006/internal/reconcile"
	"github.com/javinobile/Gauvendi-sub006/internal/webhook"
)

// PipelineService runs the reconciliation pipeline's router as a suture
// service. Serve returns when ctx is cancelled or the router fails; suture
// restarts it on failure.
type PipelineService struct {
	pipeline *reconcile.Pipeline
}

func NewPipelineService(p *reconcile.Pipeline) *PipelineService {
	return &PipelineService{pipeline: p}
}

func (s *PipelineService) Serve(ctx context.Context) error {
	logging.Info().Msg("reconciliation pipeline starting")
	err := s.pipeline.Run(ctx)
	if err != nil && ctx.Err() == nil {
		return err
	}
	return ctx.Err()
}

func (s *PipelineService) String() string { return "reconcile-pipeline" }

// HTTPService runs the webhook server as a suture service, shutting it down
// gracefully when ctx is cancelled.
type HTTPService struct {
	server          *webhook.Server
	shutdownTimeout time.Duration
}

func NewHTTPService(server *webhook.Server, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			return err
		}
		return ctx.Err()
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("webhook server shutdown incomplete")
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *HTTPService) String() string { return "webhook-server" }
