// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validConfig returns a Config that passes validation, for mutation in tests.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.PMS.BaseURL = "https://api.pms.example"
	cfg.PMS.IdentityURL = "https://identity.pms.example/token"
	cfg.PMS.RefreshToken = "long-lived-credential"
	return cfg
}

func TestValidate_AcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing base url", func(c *Config) { c.PMS.BaseURL = "" }, "pms.base_url"},
		{"missing identity url", func(c *Config) { c.PMS.IdentityURL = "" }, "pms.identity_url"},
		{"missing refresh token", func(c *Config) { c.PMS.RefreshToken = "" }, "pms.refresh_token"},
		{"zero timeout", func(c *Config) { c.PMS.Timeout = 0 }, "pms.timeout"},
		{"zero retry cap", func(c *Config) { c.Queue.MaxRetryCount = 0 }, "queue.max_retry_count"},
		{"negative requeue delay", func(c *Config) { c.Queue.RequeueDelay = -time.Second }, "queue.requeue_delay"},
		{"zero batch size", func(c *Config) { c.Push.BatchSize = 0 }, "push.batch_size"},
		{"zero max attempts", func(c *Config) { c.Push.MaxAttempts = 0 }, "push.max_attempts"},
		{"backoff cap below base", func(c *Config) {
			c.Push.RetryBaseDelay = time.Minute
			c.Push.RetryMaxDelay = time.Second
		}, "push.retry_max_delay"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"nats enabled without url", func(c *Config) {
			c.NATS.Enabled = true
			c.NATS.URL = ""
		}, "nats.url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Queue.MaxRetryCount != 5 {
		t.Errorf("requeue cap default = %d, want 5", cfg.Queue.MaxRetryCount)
	}
	if cfg.Queue.RequeueDelay != time.Second {
		t.Errorf("requeue delay default = %v, want 1s", cfg.Queue.RequeueDelay)
	}
	if cfg.PMS.TokenTTLMargin != 5*time.Minute {
		t.Errorf("token TTL margin default = %v, want 5m", cfg.PMS.TokenTTLMargin)
	}
	if cfg.Push.RetryMaxDelay != time.Minute {
		t.Errorf("backoff cap default = %v, want 60s", cfg.Push.RetryMaxDelay)
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"GVD_PMS_BASE_URL", "pms.base_url"},
		{"GVD_QUEUE_MAX_RETRY_COUNT", "queue.max_retry_count"},
		{"GVD_SERVER_PORT", "server.port"},
		{"GVD_LOGGING_LEVEL", "logging.level"},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoad_FileAndEnvLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
pms:
  base_url: https://api.pms.example
  identity_url: https://identity.pms.example/token
  refresh_token: from-file
queue:
  max_retry_count: 4
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("GVD_QUEUE_MAX_RETRY_COUNT", "7")
	t.Setenv("GVD_SERVER_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.PMS.RefreshToken != "from-file" {
		t.Errorf("file value not applied: %q", cfg.PMS.RefreshToken)
	}
	if cfg.Queue.MaxRetryCount != 7 {
		t.Errorf("env should take precedence over file: got %d, want 7", cfg.Queue.MaxRetryCount)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("env port not applied: got %d", cfg.Server.Port)
	}
	if cfg.Push.BatchSize != 5 {
		t.Errorf("default batch size expected, got %d", cfg.Push.BatchSize)
	}
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("pms:\n  base_url: https://api.pms.example\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, path)

	if _, err := Load(); err == nil {
		t.Fatal("expected validation failure for incomplete config")
	}
}
