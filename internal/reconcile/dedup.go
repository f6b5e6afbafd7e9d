// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package reconcile

import (
	"time"

	"github.com/javinobile/Gauvendi-sub006/internal/cache"
	"github.com/javinobile/Gauvendi-sub006/internal/models/pms"
)

// Deduper suppresses byte-identical webhook bodies inside a short window.
// It is a best-effort latency optimization: the booking-existence retry in
// the pipeline remains the correctness guarantee, so a missed suppression
// only costs one redundant, idempotent reconciliation.
type Deduper struct {
	store *cache.Cache
	ttl   time.Duration
}

// NewDeduper creates a deduper whose suppression window is ttl.
func NewDeduper(ttl time.Duration) *Deduper {
	return &Deduper{
		store: cache.New(ttl),
		ttl:   ttl,
	}
}

// Seen records the payload and reports whether an identical one was already
// recorded inside the window.
func (d *Deduper) Seen(payload pms.WebhookPayload) bool {
	key := cache.GenerateKey("webhook", payload)
	if _, ok := d.store.Get(key); ok {
		return true
	}
	d.store.SetWithTTL(key, struct{}{}, d.ttl)
	return false
}
