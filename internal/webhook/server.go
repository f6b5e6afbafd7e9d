// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

// Package webhook exposes the inbound HTTP surface of the sync engine: the
// endpoint the PMS posts change events to, plus health and metrics.
package webhook

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/javinobile/Gauvendi-sub006/internal/config"
	"github.com/javinobile/Gauvendi-sub006/internal/logging"
	"github.com/javinobile/Gauvendi-sub006/internal/metrics"
	"github.com/javinobile/Gauvendi-sub006/internal/models/pms"
	"github.com/javinobile/Gauvendi-sub006/internal/reconcile"
)

const maxWebhookBodySize = 1 << 20 // 1 MiB

// Enqueuer accepts a validated webhook payload for asynchronous
// reconciliation. Implemented by the pipeline.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload pms.WebhookPayload) error
}

// Server is the inbound webhook HTTP server. The webhook handler enqueues
// and returns 202 immediately; reconciliation happens on the queue.
type Server struct {
	cfg      config.ServerConfig
	enqueuer Enqueuer
	deduper  *reconcile.Deduper
	validate *validator.Validate
	http     *http.Server
}

// NewServer wires routes and middleware. deduper may be nil to disable the
// duplicate-suppression window.
func NewServer(cfg config.ServerConfig, enqueuer Enqueuer, deduper *reconcile.Deduper) *Server {
	s := &Server{
		cfg:      cfg,
		enqueuer: enqueuer,
		deduper:  deduper,
		validate: validator.New(),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitReqs > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow))
		}
		r.Post("/webhooks/pms", s.handleWebhook)
	})

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Timeout,
		WriteTimeout:      cfg.Timeout,
	}
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	logging.Info().Str("addr", s.http.Addr).Msg("webhook server listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		metrics.WebhookEventsRejected.WithLabelValues("unauthorized").Inc()
		writeError(w, http.StatusUnauthorized, "invalid webhook secret")
		return
	}

	var payload pms.WebhookPayload
	body := http.MaxBytesReader(w, r.Body, maxWebhookBodySize)
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		metrics.WebhookEventsRejected.WithLabelValues("malformed").Inc()
		writeError(w, http.StatusBadRequest, "malformed payload")
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		metrics.WebhookEventsRejected.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusUnprocessableEntity, "missing required fields")
		return
	}

	metrics.WebhookEventsReceived.WithLabelValues(payload.EventType).Inc()

	if s.deduper != nil && s.deduper.Seen(payload) {
		metrics.WebhookEventsDeduplicated.Inc()
		logging.Debug().
			Str("entity", payload.MappingEntityCode).
			Str("event_type", payload.EventType).
			Msg("duplicate webhook suppressed")
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "duplicate"})
		return
	}

	if err := s.enqueuer.Enqueue(r.Context(), payload); err != nil {
		logging.Error().Err(err).
			Str("entity", payload.MappingEntityCode).
			Msg("enqueue webhook event failed")
		writeError(w, http.StatusServiceUnavailable, "queue unavailable")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.WebhookSecret == "" {
		return true
	}
	got := r.Header.Get("X-Webhook-Secret")
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.WebhookSecret)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("write response failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
