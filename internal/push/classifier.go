// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

// Package push implements the outbound half of the sync engine: classifying
// internal restriction records into the PMS's four addressing levels and
// pushing payload batches under the provider's rate budget.
package push

import (
	"github.com/javinobile/Gauvendi-sub006/internal/logging"
	"github.com/javinobile/Gauvendi-sub006/internal/metrics"
	"github.com/javinobile/Gauvendi-sub006/internal/models/pms"
)

// Restriction types understood by the PMS.
const (
	TypeClosedToStay      = "CLOSED_TO_STAY"
	TypeClosedToArrival   = "CLOSED_TO_ARRIVAL"
	TypeClosedToDeparture = "CLOSED_TO_DEPARTURE"
	TypeMinLOS            = "MIN_LENGTH_OF_STAY"
	TypeMaxLOS            = "MAX_LENGTH_OF_STAY"
	TypeMinAdvance        = "MIN_ADVANCE_BOOKING"
	TypeMaxAdvance        = "MAX_ADVANCE_BOOKING"
)

// Level is the PMS addressing granularity of a restriction, derived from
// which optional identifier sets are populated. Never persisted.
type Level string

const (
	LevelProperty             Level = "property"
	LevelRoomProduct          Level = "room_product"
	LevelSalesPlan            Level = "sales_plan"
	LevelRoomProductSalesPlan Level = "room_product_sales_plan"
)

// Restriction is the internal restriction record, read-only input to the
// classifier. Owned by the restriction-management collaborator.
type Restriction struct {
	// RoomProductIDs and RatePlanIDs determine the level: both empty means
	// property-wide, each alone narrows to that dimension, both together
	// address a room-product/rate-plan pair.
	RoomProductIDs []string
	RatePlanIDs    []string

	Type     string
	FromDate string
	ToDate   string
	// Weekdays is a seven-element mask, Monday first.
	Weekdays [7]bool
	// Value carries the numeric bound for LOS and advance-booking types.
	Value int
}

// LevelOf derives the addressing level of a restriction.
func LevelOf(r Restriction) Level {
	switch {
	case len(r.RoomProductIDs) == 0 && len(r.RatePlanIDs) == 0:
		return LevelProperty
	case len(r.RatePlanIDs) == 0:
		return LevelRoomProduct
	case len(r.RoomProductIDs) == 0:
		return LevelSalesPlan
	default:
		return LevelRoomProductSalesPlan
	}
}

// Classified partitions restriction entries by PMS addressing level,
// already expanded to one entry per room-product/rate-plan pair.
type Classified struct {
	Property    []pms.RestrictionEntry
	RoomProduct []pms.RestrictionEntry
	SalesPlan   []pms.RestrictionEntry
	Combined    []pms.RestrictionEntry
}

// Total returns the number of entries across all levels.
func (c Classified) Total() int {
	return len(c.Property) + len(c.RoomProduct) + len(c.SalesPlan) + len(c.Combined)
}

// RoomProductMapping resolves an internal room-product identifier to its
// PMS-side code. ok=false means the product has no PMS counterpart.
type RoomProductMapping func(roomProductID string) (pmsCode string, ok bool)

// Classify partitions restrictions into the four PMS addressing levels.
//
// The PMS accepts at most one room-product/rate-plan pair per restriction
// entry, so a record spanning several room products expands into one entry
// per product, and a combined record expands into the cartesian product with
// its rate plans. Entries whose room product has no PMS mapping are dropped
// with a warning; a gap in the mapping table must not fail the whole push.
func Classify(propertyCode string, restrictions []Restriction, mapRoomProduct RoomProductMapping) Classified {
	var out Classified

	for _, r := range restrictions {
		switch LevelOf(r) {
		case LevelProperty:
			out.Property = append(out.Property, entryFor(propertyCode, r, "", ""))

		case LevelRoomProduct:
			for _, rp := range r.RoomProductIDs {
				code, ok := mapRoomProduct(rp)
				if !ok {
					dropUnmapped(propertyCode, rp)
					continue
				}
				out.RoomProduct = append(out.RoomProduct, entryFor(propertyCode, r, code, ""))
			}

		case LevelSalesPlan:
			for _, plan := range r.RatePlanIDs {
				out.SalesPlan = append(out.SalesPlan, entryFor(propertyCode, r, "", plan))
			}

		case LevelRoomProductSalesPlan:
			for _, rp := range r.RoomProductIDs {
				code, ok := mapRoomProduct(rp)
				if !ok {
					dropUnmapped(propertyCode, rp)
					continue
				}
				for _, plan := range r.RatePlanIDs {
					out.Combined = append(out.Combined, entryFor(propertyCode, r, code, plan))
				}
			}
		}
	}

	return out
}

func entryFor(propertyCode string, r Restriction, roomProductCode, ratePlanID string) pms.RestrictionEntry {
	return pms.RestrictionEntry{
		PropertyCode:  propertyCode,
		RoomProductID: roomProductCode,
		RatePlanID:    ratePlanID,
		Type:          r.Type,
		FromDate:      r.FromDate,
		ToDate:        r.ToDate,
		Weekdays:      r.Weekdays,
		Value:         r.Value,
	}
}

func dropUnmapped(propertyCode, roomProductID string) {
	metrics.ClassifierDroppedRestrictions.Inc()
	logging.Warn().
		Str("property", propertyCode).
		Str("room_product", roomProductID).
		Msg("dropping restriction entry: room product has no pms mapping")
}
