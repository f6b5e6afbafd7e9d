// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package push

import (
	"errors"
	"time"

	"github.com/javinobile/Gauvendi-sub006/internal/pmsapi"
)

// defaultRetryAfter is assumed when a 429 response carries no Retry-After
// header.
const defaultRetryAfter = 5 * time.Second

// Backoff returns the wait before retry attempt k (1-based):
// min(base * 2^(k-1), cap). The sequence is non-decreasing until the cap.
func Backoff(base, capDelay time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	// Shift overflow guard: beyond 32 doublings the cap always wins.
	if attempt > 32 {
		return capDelay
	}
	delay := base << uint(attempt-1)
	if delay > capDelay || delay <= 0 {
		return capDelay
	}
	return delay
}

// retryWait computes the wait after a rate-limited attempt: the larger of
// the provider's Retry-After (default 5s when absent) and the computed
// exponential backoff, so the wait never shrinks across attempts.
func retryWait(err error, base, capDelay time.Duration, attempt int) time.Duration {
	retryAfter := defaultRetryAfter
	var apiErr *pmsapi.APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		retryAfter = apiErr.RetryAfter
	}

	wait := Backoff(base, capDelay, attempt)
	if retryAfter > wait {
		return retryAfter
	}
	return wait
}
