package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestValidate_InvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "empty server address",
			mutate: func(c *Config) { c.Server.Address = "" },
		},
		{
			name:   "zero read timeout",
			mutate: func(c *Config) { c.Server.ReadTimeout = 0 },
		},
		{
			name:   "empty jwt secret",
			mutate: func(c *Config) { c.Auth.JWTSecret = "" },
		},
		{
			name:   "zero access token ttl",
			mutate: func(c *Config) { c.Auth.AccessTokenTTL = 0 },
		},
		{
			name:   "zero ping interval",
			mutate: func(c *Config) { c.Realtime.PingInterval = 0 },
		},
		{
			name:   "zero send buffer",
			mutate: func(c *Config) { c.Realtime.SendBufferSize = 0 },
		},
		{
			name:   "bogus analytics timezone",
			mutate: func(c *Config) { c.Analytics.Timezone = "Not/AZone" },
		},
		{
			name:   "negative analytics cache ttl",
			mutate: func(c *Config) { c.Analytics.CacheTTL = -time.Second },
		},
		{
			name: "scheduler enabled without interval",
			mutate: func(c *Config) {
				c.Scheduler.Enabled = true
				c.Scheduler.Interval = 0
			},
		},
		{
			name: "backup enabled without directory",
			mutate: func(c *Config) {
				c.Backup.Enabled = true
				c.Backup.Directory = ""
			},
		},
		{
			name: "backup enabled without retention",
			mutate: func(c *Config) {
				c.Backup.Enabled = true
				c.Backup.RetentionDays = 0
			},
		},
		{
			name: "redis enabled without address",
			mutate: func(c *Config) {
				c.Redis.Enabled = true
				c.Redis.Address = ""
			},
		},
		{
			name: "tracing sample rate out of range",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.SampleRate = 1.5
			},
		},
		{
			name: "rate limiting enabled without rps",
			mutate: func(c *Config) {
				c.RateLimiting.Enabled = true
				c.RateLimiting.RequestsPerSecond = 0
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestValidate_DisabledSectionsAllowZeroValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scheduler.Enabled = false
	cfg.Scheduler.Interval = 0
	cfg.Backup.Enabled = false
	cfg.Backup.Directory = ""
	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.RequestsPerSecond = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled sections should not be validated, got: %v", err)
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("expected defaults for missing file, got: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("expected default address :8080, got %s", cfg.Server.Address)
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  address: ":9999"
analytics:
  timezone: "America/New_York"
  cache_ttl: 10s
scheduler:
  enabled: true
  interval: 5m
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Address != ":9999" {
		t.Errorf("expected address :9999, got %s", cfg.Server.Address)
	}
	if cfg.Analytics.Timezone != "America/New_York" {
		t.Errorf("expected overridden timezone, got %s", cfg.Analytics.Timezone)
	}
	if cfg.Analytics.CacheTTL != 10*time.Second {
		t.Errorf("expected 10s cache ttl, got %s", cfg.Analytics.CacheTTL)
	}
	if cfg.Scheduler.Interval != 5*time.Minute {
		t.Errorf("expected 5m scheduler interval, got %s", cfg.Scheduler.Interval)
	}
	// Untouched sections keep their defaults
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Errorf("expected default access token ttl, got %s", cfg.Auth.AccessTokenTTL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SOCIALDECK_SERVER_ADDRESS", ":7070")
	t.Setenv("SOCIALDECK_JWT_SECRET", "env-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Address != ":7070" {
		t.Errorf("expected env address override, got %s", cfg.Server.Address)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("expected env jwt secret override, got %s", cfg.Auth.JWTSecret)
	}
}
