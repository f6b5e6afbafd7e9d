// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

// Package config defines the immutable engine configuration and loads it
// from layered sources (defaults, optional YAML file, environment).
//
// The configuration is built once at process start and passed down by value
// or pointer; no component reads the environment directly.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the root configuration for the sync engine.
type Config struct {
	PMS     PMSConfig     `koanf:"pms"`
	Queue   QueueConfig   `koanf:"queue"`
	Push    PushConfig    `koanf:"push"`
	Server  ServerConfig  `koanf:"server"`
	NATS    NATSConfig    `koanf:"nats"`
	Logging LoggingConfig `koanf:"logging"`
}

// PMSConfig holds connection settings for the external Property Management
// System: its REST API and the identity endpoint used for token exchange.
type PMSConfig struct {
	// BaseURL is the root of the PMS REST API, e.g. https://api.pms.example.
	BaseURL string `koanf:"base_url"`

	// IdentityURL is the token-exchange endpoint of the PMS identity service.
	IdentityURL string `koanf:"identity_url"`

	// ClientID and ClientSecret authenticate the token exchange.
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`

	// RefreshToken is the long-lived credential exchanged for access tokens.
	RefreshToken string `koanf:"refresh_token"`

	// Timeout bounds every single PMS HTTP call.
	Timeout time.Duration `koanf:"timeout"`

	// TokenTTLMargin is subtracted from the provider-reported token expiry
	// before caching, so tokens are refreshed ahead of expiry.
	TokenTTLMargin time.Duration `koanf:"token_ttl_margin"`
}

// QueueConfig tunes the webhook reconciliation queue.
type QueueConfig struct {
	// RequeueDelay is how long a job waits before re-entering the queue when
	// its target booking is not yet present.
	RequeueDelay time.Duration `koanf:"requeue_delay"`

	// MaxRetryCount is the requeue cap; jobs reaching it are dropped.
	MaxRetryCount int `koanf:"max_retry_count"`

	// DedupTTL is the window in which an identical webhook body is suppressed.
	// Best-effort latency optimization only; booking-existence retry remains
	// authoritative.
	DedupTTL time.Duration `koanf:"dedup_ttl"`

	// BufferSize is the in-process queue channel buffer.
	BufferSize int `koanf:"buffer_size"`
}

// PushConfig tunes the outbound batched push engine.
type PushConfig struct {
	// BatchSize is the number of items pushed concurrently per batch.
	BatchSize int `koanf:"batch_size"`

	// InterBatchDelay is the pause between consecutive batches, keeping the
	// sustained call rate under the provider's budget.
	InterBatchDelay time.Duration `koanf:"inter_batch_delay"`

	// MaxAttempts caps rate-limit retries per item (3-5 depending on operation).
	MaxAttempts int `koanf:"max_attempts"`

	// RetryBaseDelay seeds the exponential backoff on HTTP 429.
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`

	// RetryMaxDelay caps the backoff wait.
	RetryMaxDelay time.Duration `koanf:"retry_max_delay"`
}

// ServerConfig configures the inbound webhook HTTP server.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// WebhookSecret is the shared secret the PMS sends in X-Webhook-Secret.
	// Empty disables the check (development only).
	WebhookSecret string `koanf:"webhook_secret"`

	// RateLimitReqs / RateLimitWindow bound inbound webhook bursts per IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// NATSConfig configures the optional JetStream queue transport
// (built with the nats tag). The default build uses the in-process queue.
type NATSConfig struct {
	Enabled     bool   `koanf:"enabled"`
	URL         string `koanf:"url"`
	DurableName string `koanf:"durable_name"`
	QueueGroup  string `koanf:"queue_group"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		PMS: PMSConfig{
			BaseURL:        "",
			IdentityURL:    "",
			ClientID:       "",
			ClientSecret:   "",
			RefreshToken:   "",
			Timeout:        30 * time.Second,
			TokenTTLMargin: 5 * time.Minute,
		},
		Queue: QueueConfig{
			RequeueDelay:  time.Second,
			MaxRetryCount: 5,
			DedupTTL:      30 * time.Second,
			BufferSize:    256,
		},
		Push: PushConfig{
			BatchSize:       5,
			InterBatchDelay: time.Second,
			MaxAttempts:     3,
			RetryBaseDelay:  time.Second,
			RetryMaxDelay:   time.Minute,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			WebhookSecret:   "",
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		NATS: NATSConfig{
			Enabled:     false,
			URL:         "nats://127.0.0.1:4222",
			DurableName: "pms-reconciler",
			QueueGroup:  "reconcilers",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the configuration for inconsistencies. It is called by
// Load; call it directly when constructing a Config by hand.
func (c *Config) Validate() error {
	if c.PMS.BaseURL == "" {
		return fmt.Errorf("pms.base_url is required")
	}
	if _, err := url.Parse(c.PMS.BaseURL); err != nil {
		return fmt.Errorf("pms.base_url is not a valid URL: %w", err)
	}
	if c.PMS.IdentityURL == "" {
		return fmt.Errorf("pms.identity_url is required")
	}
	if c.PMS.RefreshToken == "" {
		return fmt.Errorf("pms.refresh_token is required")
	}
	if c.PMS.Timeout <= 0 {
		return fmt.Errorf("pms.timeout must be positive, got %v", c.PMS.Timeout)
	}
	if c.Queue.MaxRetryCount < 1 {
		return fmt.Errorf("queue.max_retry_count must be at least 1, got %d", c.Queue.MaxRetryCount)
	}
	if c.Queue.RequeueDelay < 0 {
		return fmt.Errorf("queue.requeue_delay must not be negative, got %v", c.Queue.RequeueDelay)
	}
	if c.Push.BatchSize < 1 {
		return fmt.Errorf("push.batch_size must be at least 1, got %d", c.Push.BatchSize)
	}
	if c.Push.MaxAttempts < 1 {
		return fmt.Errorf("push.max_attempts must be at least 1, got %d", c.Push.MaxAttempts)
	}
	if c.Push.RetryBaseDelay <= 0 {
		return fmt.Errorf("push.retry_base_delay must be positive, got %v", c.Push.RetryBaseDelay)
	}
	if c.Push.RetryMaxDelay < c.Push.RetryBaseDelay {
		return fmt.Errorf("push.retry_max_delay (%v) must not be below push.retry_base_delay (%v)",
			c.Push.RetryMaxDelay, c.Push.RetryBaseDelay)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required when nats.enabled is true")
	}
	return nil
}
