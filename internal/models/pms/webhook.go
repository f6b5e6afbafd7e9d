// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package pms

import "github.com/goccy/go-json"

// Webhook event types emitted by the PMS. The discriminator is EventType on
// WebhookPayload; per-type detail sits in RawPayload and is re-fetched from
// the PMS during reconciliation rather than trusted as a delta.
const (
	EventReservationCreated  = "RESERVATION_CREATED"
	EventReservationChanged  = "RESERVATION_CHANGED"
	EventReservationCanceled = "RESERVATION_CANCELED"
	EventBlockChanged        = "BLOCK_CHANGED"
	EventMaintenanceChanged  = "MAINTENANCE_CHANGED"
	EventFolioPayment        = "FOLIO_PAYMENT"
)

// WebhookPayload is the inbound webhook body sent by the PMS.
//
// MappingEntityCode encodes a composite key; the first token before the "-"
// delimiter is the booking's external code (e.g. "ABC123-1" -> "ABC123").
type WebhookPayload struct {
	MappingEntityCode string          `json:"mappingEntityCode" validate:"required"`
	MappingHotelCode  string          `json:"mappingHotelCode" validate:"required"`
	EventType         string          `json:"eventType" validate:"required"`
	RawPayload        json.RawMessage `json:"payload,omitempty"`
}

// KnownEventTypes lists every event type the pipeline dispatches.
var KnownEventTypes = []string{
	EventReservationCreated,
	EventReservationChanged,
	EventReservationCanceled,
	EventBlockChanged,
	EventMaintenanceChanged,
	EventFolioPayment,
}

// IsKnownEventType reports whether the pipeline has a syncer for eventType.
func IsKnownEventType(eventType string) bool {
	for _, t := range KnownEventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}
