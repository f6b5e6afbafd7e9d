// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package sync

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/javinobile/Gauvendi-sub006/internal/config"
	"github.com/javinobile/Gauvendi-sub006/internal/logging"
	"github.com/javinobile/Gauvendi-sub006/internal/models/pms"
	"github.com/javinobile/Gauvendi-sub006/internal/pmsapi"
	"github.com/javinobile/Gauvendi-sub006/internal/push"
)

// RestrictionPusher pushes internal restriction records out to the PMS:
// classify into the four addressing levels, expand per room-product and
// rate-plan pair, then send as patch operations in rate-budgeted batches.
type RestrictionPusher struct {
	client *pmsapi.Client
	opts   push.Options
}

func NewRestrictionPusher(client *pmsapi.Client, cfg config.PushConfig) *RestrictionPusher {
	return &RestrictionPusher{
		client: client,
		opts:   push.OptionsFromConfig(cfg),
	}
}

// restrictionTarget pairs one expanded entry with its endpoint path.
type restrictionTarget struct {
	path  string
	group string
	entry pms.RestrictionEntry
}

// Push sends the restrictions for one property. Items that fail permanently
// or exhaust their rate-limit retries are reported, never raised.
func (p *RestrictionPusher) Push(
	ctx context.Context,
	propertyCode string,
	restrictions []push.Restriction,
	mapRoomProduct push.RoomProductMapping,
) push.Report {
	classified := push.Classify(propertyCode, restrictions, mapRoomProduct)

	targets := make([]restrictionTarget, 0, classified.Total())
	for _, e := range classified.Property {
		targets = append(targets, restrictionTarget{
			path:  fmt.Sprintf("/properties/%s/restrictions", propertyCode),
			group: "property",
			entry: e,
		})
	}
	for _, e := range classified.RoomProduct {
		targets = append(targets, restrictionTarget{
			path:  fmt.Sprintf("/properties/%s/room-products/%s/restrictions", propertyCode, e.RoomProductID),
			group: e.RoomProductID,
			entry: e,
		})
	}
	for _, e := range classified.SalesPlan {
		targets = append(targets, restrictionTarget{
			path:  fmt.Sprintf("/properties/%s/rate-plans/%s/restrictions", propertyCode, e.RatePlanID),
			group: e.RatePlanID,
			entry: e,
		})
	}
	for _, e := range classified.Combined {
		targets = append(targets, restrictionTarget{
			path: fmt.Sprintf("/properties/%s/room-products/%s/rate-plans/%s/restrictions",
				propertyCode, e.RoomProductID, e.RatePlanID),
			group: e.RoomProductID,
			entry: e,
		})
	}

	report := push.PushAll(ctx, targets,
		func(t restrictionTarget) string { return t.group },
		func(ctx context.Context, t restrictionTarget) error {
			body := []pms.PatchOperation{{
				Op:    pms.OpReplace,
				Path:  patchPath(t.entry.Type),
				Value: t.entry,
			}}
			_, err := p.client.Mutate(ctx, propertyCode, http.MethodPatch, t.path, body)
			return err
		},
		p.opts)

	logging.Info().
		Str("property", propertyCode).
		Int("entries", len(targets)).
		Int("succeeded", report.SuccessCount).
		Int("failed", report.FailureCount).
		Msg("restriction push finished")
	return report
}

// patchPath maps a restriction type to its patch document path, e.g.
// CLOSED_TO_STAY -> /closed-to-stay.
func patchPath(restrictionType string) string {
	return "/" + strings.ReplaceAll(strings.ToLower(restrictionType), "_", "-")
}
