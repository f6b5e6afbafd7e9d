// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package pms

// Patch operation verbs accepted by the PMS restriction and rate endpoints.
const (
	OpReplace = "replace"
	OpRemove  = "remove"
)

// PatchOperation is one entry of a JSON-patch-like mutation body for
// restriction and rate updates.
type PatchOperation struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value,omitempty"`
}

// RestrictionEntry is one restriction as the PMS addresses it: at most one
// room product and one rate plan per entry. Internal restrictions spanning
// several room products or rate plans are expanded into multiple entries
// before pushing.
type RestrictionEntry struct {
	PropertyCode  string `json:"hotelCode"`
	RoomProductID string `json:"roomProductId,omitempty"`
	RatePlanID    string `json:"ratePlanId,omitempty"`

	Type     string `json:"type"`
	FromDate string `json:"fromDate"`
	ToDate   string `json:"toDate"`
	// Weekdays is a seven-element mask, Monday first.
	Weekdays [7]bool `json:"weekdays"`
	// Value carries the numeric bound for LOS and advance-booking types.
	Value int `json:"value,omitempty"`
}
