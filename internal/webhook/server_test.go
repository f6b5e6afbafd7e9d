// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/javinobile/Gauvendi-sub006/internal/config"
	"github.com/javinobile/Gauvendi-sub006/internal/models/pms"
	"github.com/javinobile/Gauvendi-sub006/internal/reconcile"
)

type captureEnqueuer struct {
	mu       sync.Mutex
	payloads []pms.WebhookPayload
	err      error
}

func (e *captureEnqueuer) Enqueue(_ context.Context, payload pms.WebhookPayload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.payloads = append(e.payloads, payload)
	return nil
}

func (e *captureEnqueuer) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.payloads)
}

func testServerConfig(secret string) config.ServerConfig {
	return config.ServerConfig{
		Host:          "127.0.0.1",
		Port:          0,
		Timeout:       5 * time.Second,
		WebhookSecret: secret,
	}
}

const validBody = `{"mappingEntityCode":"ABC123-1","mappingHotelCode":"HOTEL1","eventType":"RESERVATION_CREATED"}`

func postWebhook(handler http.Handler, secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/pms", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestWebhookAcceptsValidPayload(t *testing.T) {
	enq := &captureEnqueuer{}
	s := NewServer(testServerConfig(""), enq, nil)

	rec := postWebhook(s.Handler(), "", validBody)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusAccepted, rec.Body)
	}
	if enq.count() != 1 {
		t.Fatalf("enqueued = %d, want 1", enq.count())
	}
	got := enq.payloads[0]
	if got.MappingEntityCode != "ABC123-1" || got.EventType != pms.EventReservationCreated {
		t.Errorf("enqueued payload = %+v", got)
	}
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	enq := &captureEnqueuer{}
	s := NewServer(testServerConfig("s3cret"), enq, nil)

	if rec := postWebhook(s.Handler(), "wrong", validBody); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong secret status = %d, want 401", rec.Code)
	}
	if rec := postWebhook(s.Handler(), "", validBody); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing secret status = %d, want 401", rec.Code)
	}
	if enq.count() != 0 {
		t.Errorf("rejected requests were enqueued: %d", enq.count())
	}

	if rec := postWebhook(s.Handler(), "s3cret", validBody); rec.Code != http.StatusAccepted {
		t.Errorf("correct secret status = %d, want 202", rec.Code)
	}
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	enq := &captureEnqueuer{}
	s := NewServer(testServerConfig(""), enq, nil)

	if rec := postWebhook(s.Handler(), "", "{broken"); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec.Code)
	}
	if enq.count() != 0 {
		t.Error("malformed body was enqueued")
	}
}

func TestWebhookRejectsMissingFields(t *testing.T) {
	enq := &captureEnqueuer{}
	s := NewServer(testServerConfig(""), enq, nil)

	body := `{"mappingEntityCode":"ABC123-1","eventType":"RESERVATION_CREATED"}`
	if rec := postWebhook(s.Handler(), "", body); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("missing hotel code status = %d, want 422", rec.Code)
	}
	if enq.count() != 0 {
		t.Error("incomplete payload was enqueued")
	}
}

func TestWebhookSuppressesDuplicates(t *testing.T) {
	enq := &captureEnqueuer{}
	s := NewServer(testServerConfig(""), enq, reconcile.NewDeduper(time.Minute))

	first := postWebhook(s.Handler(), "", validBody)
	second := postWebhook(s.Handler(), "", validBody)

	if first.Code != http.StatusAccepted || second.Code != http.StatusAccepted {
		t.Fatalf("statuses = %d, %d, want 202 both", first.Code, second.Code)
	}
	if enq.count() != 1 {
		t.Errorf("enqueued = %d, want 1 (duplicate suppressed)", enq.count())
	}
}

func TestWebhookQueueFailure(t *testing.T) {
	enq := &captureEnqueuer{err: context.DeadlineExceeded}
	s := NewServer(testServerConfig(""), enq, nil)

	if rec := postWebhook(s.Handler(), "", validBody); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := NewServer(testServerConfig("s3cret"), &captureEnqueuer{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	// Health never requires the webhook secret.
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(testServerConfig(""), &captureEnqueuer{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_") {
		t.Error("metrics output missing runtime collectors")
	}
}
