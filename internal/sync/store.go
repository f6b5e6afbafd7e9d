// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

// Package sync holds the PMS-backed reconciliation routines: each webhook
// event triggers a full re-fetch of the referenced entity from the PMS and
// an idempotent upsert into the local store.
package sync

import (
	"context"
	"sync"

	"github.com/javinobile/Gauvendi-sub006/internal/models/pms"
)

// Store is the persistence boundary of reconciliation. Upserts must be
// idempotent: replays of the same webhook event land on the same key.
type Store interface {
	BookingExists(ctx context.Context, mappingCode, hotelCode string) (bool, error)
	UpsertReservation(ctx context.Context, r pms.Reservation) error
	UpsertBlock(ctx context.Context, b pms.Block) error
	UpsertMaintenance(ctx context.Context, m pms.Maintenance) error
	UpsertFolioPayment(ctx context.Context, p pms.FolioPayment) error
}

// MemoryStore is a map-backed Store. It stands in for the external
// persistence collaborator and backs the tests.
type MemoryStore struct {
	mu            sync.RWMutex
	bookings      map[string]struct{}
	reservations  map[string]pms.Reservation
	blocks        map[string]pms.Block
	maintenances  map[string]pms.Maintenance
	folioPayments map[string]pms.FolioPayment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings:      make(map[string]struct{}),
		reservations:  make(map[string]pms.Reservation),
		blocks:        make(map[string]pms.Block),
		maintenances:  make(map[string]pms.Maintenance),
		folioPayments: make(map[string]pms.FolioPayment),
	}
}

func bookingKey(mappingCode, hotelCode string) string {
	return hotelCode + "/" + mappingCode
}

// AddBooking registers an internal booking, making webhook events for its
// mapping code resolvable.
func (s *MemoryStore) AddBooking(mappingCode, hotelCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[bookingKey(mappingCode, hotelCode)] = struct{}{}
}

func (s *MemoryStore) BookingExists(_ context.Context, mappingCode, hotelCode string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.bookings[bookingKey(mappingCode, hotelCode)]
	return ok, nil
}

func (s *MemoryStore) UpsertReservation(_ context.Context, r pms.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[bookingKey(r.ExternalCode, r.PropertyCode)] = r
	return nil
}

func (s *MemoryStore) UpsertBlock(_ context.Context, b pms.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[bookingKey(b.ExternalCode, b.PropertyCode)] = b
	return nil
}

func (s *MemoryStore) UpsertMaintenance(_ context.Context, m pms.Maintenance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maintenances[bookingKey(m.ExternalCode, m.PropertyCode)] = m
	return nil
}

func (s *MemoryStore) UpsertFolioPayment(_ context.Context, p pms.FolioPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folioPayments[bookingKey(p.ExternalCode, p.PropertyCode)] = p
	return nil
}

// Reservation returns the stored snapshot, mainly for tests.
func (s *MemoryStore) Reservation(mappingCode, hotelCode string) (pms.Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[bookingKey(mappingCode, hotelCode)]
	return r, ok
}

// BlockCount reports how many block snapshots are stored.
func (s *MemoryStore) BlockCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}

// FolioPaymentCount reports how many folio payments are stored.
func (s *MemoryStore) FolioPaymentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.folioPayments)
}
