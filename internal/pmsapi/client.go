// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

// Package pmsapi implements the HTTP client layer for the external Property
// Management System: token caching, single mutation calls, and paginated
// reads.
//
// Resilience mechanisms:
//   - Circuit breaker: opens after 3 consecutive transport/5xx failures,
//     60s open period. Rate-limit (429) and other 4xx responses do not
//     count as breaker failures.
//   - 429 responses surface as *APIError with RetryAfter parsed; the retry
//     policy (capped exponential backoff) belongs to the caller, see the
//     push package.
//   - Every call is bounded by the configured HTTP timeout and honors
//     context cancellation.
package pmsapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/javinobile/Gauvendi-sub006/internal/config"
	"github.com/javinobile/Gauvendi-sub006/internal/logging"
	"github.com/javinobile/Gauvendi-sub006/internal/metrics"
)

// maxErrorBodySize limits how much of an error response body is kept.
// Prevents unbounded allocation when the provider returns a large error page.
const maxErrorBodySize = 64 * 1024 // 64KB

// breakerName labels the PMS circuit breaker in logs and metrics.
const breakerName = "pms-api"

// acceptedStatus is the set of success statuses for PMS calls.
var acceptedStatus = map[int]bool{
	http.StatusOK:        true,
	http.StatusCreated:   true,
	http.StatusAccepted:  true,
	http.StatusNoContent: true,
}

// Client issues authenticated calls against the PMS REST API.
//
// Thread safety: safe for concurrent use; each call builds its own request.
type Client struct {
	baseURL string
	tokens  TokenProvider
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[*http.Response]
}

// NewClient creates a PMS API client using the given token provider.
func NewClient(cfg config.PMSConfig, tokens TokenProvider) *Client {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return &Client{
		baseURL: cfg.BaseURL,
		tokens:  tokens,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		cb: cb,
	}
}

// Request performs an authenticated GET against the PMS API and returns the
// response body. params may be nil.
func (c *Client) Request(ctx context.Context, propertyKey, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	return c.call(ctx, propertyKey, http.MethodGet, reqURL, nil)
}

// Mutate performs an authenticated write (PATCH/PUT/POST/DELETE) against the
// PMS API. body is JSON-encoded; nil sends no body.
func (c *Client) Mutate(ctx context.Context, propertyKey, method, path string, body interface{}) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s %s body: %w", method, path, err)
		}
	}
	return c.call(ctx, propertyKey, method, c.baseURL+path, payload)
}

// call performs one authenticated request. A 401 triggers a single token
// refresh and retry; any other non-accepted status becomes an *APIError.
func (c *Client) call(ctx context.Context, propertyKey, method, reqURL string, body []byte) ([]byte, error) {
	respBody, err := c.attempt(ctx, propertyKey, method, reqURL, body)
	if err == nil {
		return respBody, nil
	}

	// Expired token inside the TTL window: refresh once and retry.
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		c.tokens.Invalidate(propertyKey)
		return c.attempt(ctx, propertyKey, method, reqURL, body)
	}
	return nil, err
}

func (c *Client) attempt(ctx context.Context, propertyKey, method, reqURL string, body []byte) ([]byte, error) {
	token, err := c.tokens.GetToken(ctx, propertyKey)
	if err != nil {
		return nil, err
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.do(req)
	if err != nil {
		metrics.PMSRequestsTotal.WithLabelValues(method, "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()
	metrics.PMSRequestsTotal.WithLabelValues(method, statusClass(resp.StatusCode)).Inc()

	if !acceptedStatus[resp.StatusCode] {
		return nil, newAPIError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", method, err)
	}
	return data, nil
}

// do executes the transport call behind the circuit breaker. Only transport
// errors and 5xx responses count as breaker failures; 4xx (including 429)
// pass through as plain responses.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.cb.Execute(func() (*http.Response, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("pms request failed: %w", err)
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			apiErr := newAPIError(resp)
			_ = resp.Body.Close()
			return nil, apiErr
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Warn().Err(err).Str("url", req.URL.String()).Msg("circuit breaker rejected pms request")
		}
		return nil, err
	}
	return resp, nil
}

// newAPIError builds an APIError from a non-success response, reading at
// most maxErrorBodySize of the body and parsing Retry-After on 429.
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		Status: resp.StatusCode,
		Body:   string(readBodyForError(resp.Body)),
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
			apiErr.RetryAfter = time.Duration(seconds) * time.Second
		}
	}
	return apiErr
}

// readBodyForError reads a response body for error reporting (max 64KB).
func readBodyForError(r io.Reader) []byte {
	limited := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("... (truncated)")...)
	}
	return body
}

// GetJSON performs a Request and decodes the response into T.
func GetJSON[T any](ctx context.Context, c *Client, propertyKey, path string, params url.Values) (*T, error) {
	data, err := c.Request(ctx, propertyKey, path, params)
	if err != nil {
		return nil, err
	}
	result := new(T)
	if err := json.Unmarshal(data, result); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return result, nil
}

func statusClass(status int) string {
	switch {
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status == http.StatusTooManyRequests:
		return "429"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
