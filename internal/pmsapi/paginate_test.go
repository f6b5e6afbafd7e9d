// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package pmsapi

import (
	"context"
	"errors"
	"testing"
)

// pagedSource simulates a PMS list endpoint with a fixed item count.
type pagedSource struct {
	total        int
	reportedCount int // reported count override, 0 = accurate
	pagesServed  int
}

func (s *pagedSource) fetch(_ context.Context, pageNumber, pageSize int) ([]int, int, error) {
	s.pagesServed++
	start := (pageNumber - 1) * pageSize
	if start >= s.total {
		return nil, s.reported(), nil
	}
	end := start + pageSize
	if end > s.total {
		end = s.total
	}
	items := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		items = append(items, i)
	}
	return items, s.reported(), nil
}

func (s *pagedSource) reported() int {
	if s.reportedCount != 0 {
		return s.reportedCount
	}
	return s.total
}

func TestFetchAll_Completeness(t *testing.T) {
	// 437 items at page size 200: 3 pages of 200+200+37.
	src := &pagedSource{total: 437}

	items, err := FetchAll(context.Background(), 200, src.fetch)
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(items) != 437 {
		t.Errorf("got %d items, want 437", len(items))
	}
	if src.pagesServed != 3 {
		t.Errorf("served %d pages, want 3", src.pagesServed)
	}
	// Spot-check ordering.
	if items[0] != 0 || items[436] != 436 {
		t.Errorf("items out of order: first=%d last=%d", items[0], items[436])
	}
}

func TestFetchAll_ExactPageBoundary(t *testing.T) {
	src := &pagedSource{total: 400}

	items, err := FetchAll(context.Background(), 200, src.fetch)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 400 {
		t.Errorf("got %d items, want 400", len(items))
	}
	// Accumulated reaches the reported count after page 2; no third request.
	if src.pagesServed != 2 {
		t.Errorf("served %d pages, want 2", src.pagesServed)
	}
}

func TestFetchAll_ShortPageStopsDespiteInflatedCount(t *testing.T) {
	// Endpoint claims 1000 items but only has 250.
	src := &pagedSource{total: 250, reportedCount: 1000}

	items, err := FetchAll(context.Background(), 200, src.fetch)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 250 {
		t.Errorf("got %d items, want 250", len(items))
	}
	if src.pagesServed != 2 {
		t.Errorf("served %d pages, want 2 (short page must stop the loop)", src.pagesServed)
	}
}

func TestFetchAll_SafetyCapTruncates(t *testing.T) {
	// Full pages forever with an unreachable reported count.
	fetch := func(_ context.Context, pageNumber, pageSize int) ([]int, int, error) {
		items := make([]int, pageSize)
		return items, 1 << 30, nil
	}

	items, err := FetchAll(context.Background(), 2, fetch)
	if err != nil {
		t.Fatalf("cap should truncate, not fail: %v", err)
	}
	if len(items) != maxPages*2 {
		t.Errorf("got %d items, want %d", len(items), maxPages*2)
	}
}

func TestFetchAll_PropagatesPageError(t *testing.T) {
	boom := errors.New("boom")
	fetch := func(_ context.Context, pageNumber, _ int) ([]int, int, error) {
		if pageNumber == 2 {
			return nil, 0, boom
		}
		return []int{1, 2}, 10, nil
	}

	_, err := FetchAll(context.Background(), 2, fetch)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped page error, got %v", err)
	}
}

func TestFetchAll_RejectsBadPageSize(t *testing.T) {
	for _, size := range []int{0, -5} {
		_, err := FetchAll(context.Background(), size, func(context.Context, int, int) ([]int, int, error) {
			return nil, 0, nil
		})
		if err == nil {
			t.Errorf("page size %d should be rejected", size)
		}
	}
}

func TestFetchAll_EmptySource(t *testing.T) {
	fetch := func(context.Context, int, int) ([]string, int, error) {
		return nil, 0, nil
	}
	items, err := FetchAll(context.Background(), 50, fetch)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items, want 0", len(items))
	}
}
