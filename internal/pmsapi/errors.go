// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package pmsapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrRateLimitExceeded is returned when a caller's retry budget for HTTP 429
// responses is exhausted.
var ErrRateLimitExceeded = errors.New("pms rate limit exceeded")

// AuthError indicates the identity endpoint refused the token exchange or
// returned no token. Terminal for the current operation; the token cache
// never retries internally.
type AuthError struct {
	Status int
	Reason string
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("pms auth failed (status %d): %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("pms auth failed: %s", e.Reason)
}

// APIError carries a non-success PMS response. Body holds the provider's
// error payload (truncated to 64KB) for diagnostics. RetryAfter is parsed
// from the Retry-After header on 429 responses, zero when absent.
type APIError struct {
	Status     int
	Body       string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pms api error (status %d): %s", e.Status, e.Body)
}

// RateLimited reports whether the error is an HTTP 429 response. Callers
// implementing retry treat only these as transient.
func (e *APIError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// IsRateLimited reports whether err is (or wraps) a 429 APIError.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.RateLimited()
}
