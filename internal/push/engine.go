// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package push

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/javinobile/Gauvendi-sub006/internal/config"
	"github.com/javinobile/Gauvendi-sub006/internal/logging"
	"github.com/javinobile/Gauvendi-sub006/internal/metrics"
	"github.com/javinobile/Gauvendi-sub006/internal/pmsapi"
)

// State is an item's terminal push state.
type State string

const (
	// StateSucceeded: the mutation call was accepted by the PMS.
	StateSucceeded State = "succeeded"
	// StatePermanentlyFailed: a non-429 error aborted the item immediately.
	StatePermanentlyFailed State = "failed"
	// StateRetryExhausted: every attempt was rate limited. Counted as a
	// failure in the aggregate.
	StateRetryExhausted State = "retry_exhausted"
)

// Result records one item's terminal outcome.
type Result struct {
	GroupKey string
	Attempts int
	State    State
	Err      error
}

// Failed reports whether the item ended in a failure state.
func (r Result) Failed() bool {
	return r.State != StateSucceeded
}

// Report aggregates a PushAll run. The engine never errors on partial
// failure; interpreting the aggregate is the caller's responsibility.
type Report struct {
	SuccessCount int
	FailureCount int
	Results      []Result
}

// Options tunes a PushAll run.
type Options struct {
	// BatchSize is the number of items sent concurrently per batch.
	BatchSize int
	// InterBatchDelay is the pause between consecutive batches, keeping the
	// sustained call rate under the provider's budget.
	InterBatchDelay time.Duration
	// MaxAttempts caps send attempts per item (3-5 depending on operation).
	MaxAttempts int
	// RetryBaseDelay and RetryMaxDelay bound the 429 backoff.
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// OptionsFromConfig builds engine options from the push configuration.
func OptionsFromConfig(cfg config.PushConfig) Options {
	return Options{
		BatchSize:       cfg.BatchSize,
		InterBatchDelay: cfg.InterBatchDelay,
		MaxAttempts:     cfg.MaxAttempts,
		RetryBaseDelay:  cfg.RetryBaseDelay,
		RetryMaxDelay:   cfg.RetryMaxDelay,
	}
}

// GroupFunc derives the grouping key of an item, e.g. its target
// room-product or rate-plan identifier.
type GroupFunc[T any] func(item T) string

// SendFunc performs the mutation call for one item.
type SendFunc[T any] func(ctx context.Context, item T) error

// PushAll pushes items to the PMS in rate-budgeted concurrent batches.
//
// Items are partitioned by groupBy to keep related mutations adjacent, each
// group split into batches of BatchSize, and all items of one batch sent
// concurrently. Each item retries independently on HTTP 429 with capped
// exponential backoff; any other error marks the item permanently failed
// without affecting its siblings. Between batches the engine waits
// InterBatchDelay.
func PushAll[T any](ctx context.Context, items []T, groupBy GroupFunc[T], send SendFunc[T], opts Options) Report {
	report := Report{Results: make([]Result, 0, len(items))}
	if len(items) == 0 {
		return report
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	// The limiter releases one batch per InterBatchDelay; the initial token
	// lets the first batch start immediately.
	limiter := rate.NewLimiter(rate.Every(opts.InterBatchDelay), 1)
	if opts.InterBatchDelay <= 0 {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	for _, batch := range batches(groups(items, groupBy), opts.BatchSize) {
		if err := limiter.Wait(ctx); err != nil {
			// Shutdown mid-run: remaining items are never sent and are
			// reported as failed so the aggregate stays truthful.
			for _, it := range batch {
				report.Results = append(report.Results, Result{GroupKey: it.key, State: StatePermanentlyFailed, Err: err})
			}
			report.FailureCount += len(batch)
			continue
		}

		start := time.Now()
		results := runBatch(ctx, batch, send, opts)
		metrics.PushBatchDuration.Observe(time.Since(start).Seconds())

		for _, res := range results {
			metrics.PushItemsTotal.WithLabelValues(string(res.State)).Inc()
			if res.Failed() {
				report.FailureCount++
			} else {
				report.SuccessCount++
			}
			report.Results = append(report.Results, res)
		}
	}

	logging.Info().
		Int("items", len(items)).
		Int("succeeded", report.SuccessCount).
		Int("failed", report.FailureCount).
		Msg("push run completed")
	return report
}

// keyed pairs an item with its precomputed group key.
type keyed[T any] struct {
	key  string
	item T
}

// groups partitions items by group key, preserving first-seen group order
// and item order within each group.
func groups[T any](items []T, groupBy GroupFunc[T]) []keyed[T] {
	byKey := make(map[string][]keyed[T])
	var order []string
	for _, item := range items {
		k := groupBy(item)
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], keyed[T]{key: k, item: item})
	}

	out := make([]keyed[T], 0, len(items))
	for _, k := range order {
		out = append(out, byKey[k]...)
	}
	return out
}

// batches splits grouped items into slices of at most size.
func batches[T any](items []keyed[T], size int) [][]keyed[T] {
	var out [][]keyed[T]
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}

// runBatch sends every item of one batch concurrently.
func runBatch[T any](ctx context.Context, batch []keyed[T], send SendFunc[T], opts Options) []Result {
	results := make([]Result, len(batch))

	var wg sync.WaitGroup
	for i, it := range batch {
		wg.Add(1)
		go func(i int, it keyed[T]) {
			defer wg.Done()
			results[i] = pushItem(ctx, it, send, opts)
		}(i, it)
	}
	wg.Wait()

	return results
}

// pushItem drives one item through its state machine:
// Pending -> Sent -> {Succeeded | RateLimited(attempt++) -> Sent | PermanentlyFailed}.
func pushItem[T any](ctx context.Context, it keyed[T], send SendFunc[T], opts Options) Result {
	res := Result{GroupKey: it.key}

	for attempt := 1; ; attempt++ {
		res.Attempts = attempt

		err := send(ctx, it.item)
		if err == nil {
			res.State = StateSucceeded
			return res
		}

		if !pmsapi.IsRateLimited(err) {
			res.State = StatePermanentlyFailed
			res.Err = err
			logging.Warn().Err(err).Str("group", it.key).Int("attempt", attempt).Msg("push item permanently failed")
			return res
		}

		metrics.PushRateLimitRetries.Inc()
		if attempt >= opts.MaxAttempts {
			res.State = StateRetryExhausted
			res.Err = fmt.Errorf("%w after %d attempts", pmsapi.ErrRateLimitExceeded, attempt)
			logging.Warn().Str("group", it.key).Int("attempts", attempt).Msg("push item exhausted rate-limit retries")
			return res
		}

		wait := retryWait(err, opts.RetryBaseDelay, opts.RetryMaxDelay, attempt)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			res.State = StatePermanentlyFailed
			res.Err = ctx.Err()
			return res
		}
	}
}
