// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package sync

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/javinobile/Gauvendi-sub006/internal/logging"
	"github.com/javinobile/Gauvendi-sub006/internal/models/pms"
	"github.com/javinobile/Gauvendi-sub006/internal/pmsapi"
)

const listPageSize = 200

// Syncer reconciles local state against the PMS. It treats the webhook as a
// trigger only: the current entity state is always re-fetched in full, so a
// replayed or out-of-order event converges on the same result.
type Syncer struct {
	client *pmsapi.Client
	store  Store
}

func NewSyncer(client *pmsapi.Client, store Store) *Syncer {
	return &Syncer{client: client, store: store}
}

// BookingExists satisfies the pipeline's resolver contract.
func (s *Syncer) BookingExists(ctx context.Context, mappingCode, hotelCode string) (bool, error) {
	return s.store.BookingExists(ctx, mappingCode, hotelCode)
}

func (s *Syncer) SyncReservation(ctx context.Context, payload pms.WebhookPayload) error {
	code, hotel := splitMapping(payload)

	res, err := pmsapi.GetJSON[pms.Reservation](ctx, s.client,
		hotel, fmt.Sprintf("/properties/%s/reservations/%s", hotel, code), nil)
	if err != nil {
		return fmt.Errorf("fetch reservation %s: %w", code, err)
	}

	if err := s.store.UpsertReservation(ctx, *res); err != nil {
		return fmt.Errorf("upsert reservation %s: %w", code, err)
	}
	logging.Debug().Str("reservation", code).Str("hotel", hotel).Str("status", res.Status).Msg("reservation reconciled")
	return nil
}

// SyncBlock re-fetches every block attached to the booking. The listing is
// paginated on the PMS side.
func (s *Syncer) SyncBlock(ctx context.Context, payload pms.WebhookPayload) error {
	code, hotel := splitMapping(payload)

	blocks, err := fetchPaged[pms.Block](ctx, s.client, hotel,
		fmt.Sprintf("/properties/%s/blocks", hotel),
		url.Values{"blockCode": {code}})
	if err != nil {
		return fmt.Errorf("fetch blocks for %s: %w", code, err)
	}

	for _, b := range blocks {
		if err := s.store.UpsertBlock(ctx, b); err != nil {
			return fmt.Errorf("upsert block %s: %w", b.ExternalCode, err)
		}
	}
	logging.Debug().Str("block", code).Str("hotel", hotel).Int("count", len(blocks)).Msg("blocks reconciled")
	return nil
}

func (s *Syncer) SyncMaintenance(ctx context.Context, payload pms.WebhookPayload) error {
	code, hotel := splitMapping(payload)

	m, err := pmsapi.GetJSON[pms.Maintenance](ctx, s.client,
		hotel, fmt.Sprintf("/properties/%s/maintenances/%s", hotel, code), nil)
	if err != nil {
		return fmt.Errorf("fetch maintenance %s: %w", code, err)
	}

	if err := s.store.UpsertMaintenance(ctx, *m); err != nil {
		return fmt.Errorf("upsert maintenance %s: %w", code, err)
	}
	logging.Debug().Str("maintenance", code).Str("hotel", hotel).Str("type", m.Type).Msg("maintenance reconciled")
	return nil
}

// SyncFolio re-fetches the full payment list of the reservation's folio.
func (s *Syncer) SyncFolio(ctx context.Context, payload pms.WebhookPayload) error {
	code, hotel := splitMapping(payload)

	payments, err := fetchPaged[pms.FolioPayment](ctx, s.client, hotel,
		fmt.Sprintf("/properties/%s/reservations/%s/folio-payments", hotel, code), nil)
	if err != nil {
		return fmt.Errorf("fetch folio payments for %s: %w", code, err)
	}

	for _, p := range payments {
		if err := s.store.UpsertFolioPayment(ctx, p); err != nil {
			return fmt.Errorf("upsert folio payment %s: %w", p.ExternalCode, err)
		}
	}
	logging.Debug().Str("reservation", code).Str("hotel", hotel).Int("count", len(payments)).Msg("folio payments reconciled")
	return nil
}

// fetchPaged drives the paginated fetch helper against a PMS listing
// endpoint.
func fetchPaged[T any](ctx context.Context, client *pmsapi.Client, hotel, path string, params url.Values) ([]T, error) {
	return pmsapi.FetchAll(ctx, listPageSize, func(ctx context.Context, pageNumber, pageSize int) ([]T, int, error) {
		q := url.Values{}
		for k, vs := range params {
			q[k] = vs
		}
		q.Set("pageNumber", strconv.Itoa(pageNumber))
		q.Set("pageSize", strconv.Itoa(pageSize))

		body, err := client.Request(ctx, hotel, path, q)
		if err != nil {
			return nil, 0, err
		}
		var page pms.Paged[T]
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, 0, fmt.Errorf("decode page %d: %w", pageNumber, err)
		}
		return page.Items, page.Count, nil
	})
}

// splitMapping derives (mappingCode, hotelCode) from a webhook payload.
func splitMapping(payload pms.WebhookPayload) (string, string) {
	code, _, _ := strings.Cut(payload.MappingEntityCode, "-")
	return code, payload.MappingHotelCode
}
