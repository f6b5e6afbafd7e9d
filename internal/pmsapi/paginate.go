// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package pmsapi

import (
	"context"
	"fmt"

	"github.com/javinobile/Gauvendi-sub006/internal/logging"
)

// maxPages caps pagination against endpoints that misreport their total
// count. Hitting the cap logs a warning and truncates instead of looping.
const maxPages = 1000

// PageFunc fetches one page (pages start at 1) and returns its items plus
// the provider-reported total count across all pages.
type PageFunc[T any] func(ctx context.Context, pageNumber, pageSize int) (items []T, totalCount int, err error)

// FetchAll accumulates every page of a PMS list endpoint.
//
// It stops when the accumulated length reaches the reported total, or when a
// page comes back shorter than pageSize. The second condition is defensive:
// some endpoints report a count that disagrees with what they actually
// return, and a short page is the only reliable end-of-data signal then.
func FetchAll[T any](ctx context.Context, pageSize int, fetchPage PageFunc[T]) ([]T, error) {
	if pageSize < 1 {
		return nil, fmt.Errorf("page size must be at least 1, got %d", pageSize)
	}

	var all []T
	for page := 1; ; page++ {
		if page > maxPages {
			logging.Warn().
				Int("pages", maxPages).
				Int("items", len(all)).
				Msg("pagination safety cap reached, truncating result")
			return all, nil
		}

		items, total, err := fetchPage(ctx, page, pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}
		all = append(all, items...)

		if len(all) >= total || len(items) < pageSize {
			return all, nil
		}
	}
}
