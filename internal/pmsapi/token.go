// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package pmsapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/javinobile/Gauvendi-sub006/internal/cache"
	"github.com/javinobile/Gauvendi-sub006/internal/config"
	"github.com/javinobile/Gauvendi-sub006/internal/metrics"
	"github.com/javinobile/Gauvendi-sub006/internal/models/pms"
)

// TokenProvider supplies access tokens scoped per external property.
type TokenProvider interface {
	GetToken(ctx context.Context, propertyKey string) (string, error)
	Invalidate(propertyKey string)
}

// TokenCache caches short-lived PMS access tokens keyed by property.
//
// On a miss it exchanges the long-lived refresh credential at the identity
// endpoint and stores the result with TTL = provider-reported expiry minus
// the configured margin. Entries are immutable once written and expire
// naturally, so concurrent access needs no locking beyond the cache's own.
//
// A failed exchange returns *AuthError and is terminal for the current
// operation; retry policy belongs to the caller.
type TokenCache struct {
	cfg    config.PMSConfig
	client *http.Client
	store  *cache.Cache
}

// NewTokenCache creates a token cache for the given PMS configuration.
func NewTokenCache(cfg config.PMSConfig) *TokenCache {
	return &TokenCache{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		store: cache.New(time.Hour),
	}
}

// GetToken returns a valid access token for the property, exchanging the
// refresh credential on cache miss.
func (t *TokenCache) GetToken(ctx context.Context, propertyKey string) (string, error) {
	key := "token:" + propertyKey
	if cached, ok := t.store.Get(key); ok {
		metrics.TokenCacheHits.Inc()
		return cached.(string), nil
	}
	metrics.TokenCacheMisses.Inc()

	token, ttl, err := t.exchange(ctx, propertyKey)
	if err != nil {
		return "", err
	}

	t.store.SetWithTTL(key, token, ttl)
	return token, nil
}

// Invalidate drops the cached token for a property. Called when the PMS
// rejects a token before its reported expiry.
func (t *TokenCache) Invalidate(propertyKey string) {
	t.store.Delete("token:" + propertyKey)
}

// exchange performs the token exchange at the identity endpoint.
func (t *TokenCache) exchange(ctx context.Context, propertyKey string) (string, time.Duration, error) {
	body, err := json.Marshal(pms.TokenRequest{
		ClientID:     t.cfg.ClientID,
		ClientSecret: t.cfg.ClientSecret,
		RefreshToken: t.cfg.RefreshToken,
		PropertyCode: propertyKey,
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.IdentityURL, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", 0, &AuthError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, &AuthError{Status: resp.StatusCode, Reason: "identity endpoint returned non-success status"}
	}

	var tokenResp pms.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", 0, &AuthError{Status: resp.StatusCode, Reason: fmt.Sprintf("failed to decode token response: %v", err)}
	}
	if tokenResp.AccessToken == "" {
		return "", 0, &AuthError{Status: resp.StatusCode, Reason: "identity endpoint omitted access token"}
	}

	ttl := time.Duration(tokenResp.ExpiresIn)*time.Second - t.cfg.TokenTTLMargin
	if ttl <= 0 {
		// Provider-reported expiry shorter than the margin; keep the token
		// briefly rather than exchanging on every call.
		ttl = time.Minute
	}

	return tokenResp.AccessToken, ttl, nil
}
