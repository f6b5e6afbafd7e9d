// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters_Increment(t *testing.T) {
	before := testutil.ToFloat64(WebhookEventsDeduplicated)
	WebhookEventsDeduplicated.Inc()
	after := testutil.ToFloat64(WebhookEventsDeduplicated)

	if after != before+1 {
		t.Errorf("counter did not increment: before=%f after=%f", before, after)
	}
}

func TestLabeledCounters(t *testing.T) {
	c := ReconcileJobsProcessed.WithLabelValues("reservation", "synced")
	before := testutil.ToFloat64(c)
	c.Inc()
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("labeled counter did not increment: %f", got)
	}
}

func TestCircuitBreakerStateGauge(t *testing.T) {
	g := CircuitBreakerState.WithLabelValues("pms-api")
	g.Set(2)
	if got := testutil.ToFloat64(g); got != 2 {
		t.Errorf("gauge = %f, want 2", got)
	}
	g.Set(0)
}
