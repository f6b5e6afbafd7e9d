// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package pms

// Paged is the provider's list-endpoint envelope. Count is the total number
// of items across all pages, not the size of this page; list endpoints
// accept pageNumber and pageSize query parameters starting at page 1.
type Paged[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}
