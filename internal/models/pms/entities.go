// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package pms

import "github.com/goccy/go-json"

// Reservation is the PMS reservation snapshot fetched during reconciliation.
// Reconciliation always re-fetches the full current state; webhook deltas are
// never applied directly.
type Reservation struct {
	ExternalCode   string  `json:"reservationCode"`
	PropertyCode   string  `json:"hotelCode"`
	Status         string  `json:"status"`
	GuestName      string  `json:"guestName,omitempty"`
	RoomProductID  string  `json:"roomProductId,omitempty"`
	RatePlanID     string  `json:"ratePlanId,omitempty"`
	UnitID         string  `json:"unitId,omitempty"`
	ArrivalDate    string  `json:"arrivalDate"`
	DepartureDate  string  `json:"departureDate"`
	Adults         int     `json:"adults,omitempty"`
	Children       int     `json:"children,omitempty"`
	TotalAmount    float64 `json:"totalAmount,omitempty"`
	CurrencyCode   string  `json:"currencyCode,omitempty"`
	// RawJSON keeps the full provider payload for fields not yet mapped.
	RawJSON json.RawMessage `json:"-"`
}

// Block is a PMS room block (group hold) snapshot.
type Block struct {
	ExternalCode  string `json:"blockCode"`
	PropertyCode  string `json:"hotelCode"`
	Status        string `json:"status"`
	RoomProductID string `json:"roomProductId,omitempty"`
	Units         int    `json:"units"`
	FromDate      string `json:"fromDate"`
	ToDate        string `json:"toDate"`
}

// Maintenance is a PMS out-of-order/out-of-service record snapshot.
type Maintenance struct {
	ExternalCode string `json:"maintenanceCode"`
	PropertyCode string `json:"hotelCode"`
	UnitID       string `json:"unitId"`
	Reason       string `json:"reason,omitempty"`
	// Type is OutOfOrder or OutOfService.
	Type     string `json:"type"`
	FromDate string `json:"fromDate"`
	ToDate   string `json:"toDate"`
}

// FolioPayment is a payment posted on a reservation folio.
type FolioPayment struct {
	ExternalCode    string  `json:"paymentCode"`
	PropertyCode    string  `json:"hotelCode"`
	ReservationCode string  `json:"reservationCode"`
	FolioID         string  `json:"folioId"`
	Method          string  `json:"method"`
	Amount          float64 `json:"amount"`
	CurrencyCode    string  `json:"currencyCode"`
	PostedAt        string  `json:"postedAt"`
}
