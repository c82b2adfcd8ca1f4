package issueguard

import (
	"context"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	if cfg.Guard.LoginPath != "/" || cfg.Guard.HomePath != "/issue" {
		t.Fatalf("unexpected guard paths: %+v", cfg.Guard)
	}
	if cfg.Lock.HeartbeatInterval != 30*time.Second {
		t.Fatalf("expected 30s heartbeat interval, got %v", cfg.Lock.HeartbeatInterval)
	}
	if cfg.Lock.LeaseTTL != 90*time.Second {
		t.Fatalf("expected 90s lease TTL, got %v", cfg.Lock.LeaseTTL)
	}
	if cfg.Storage.TokenKey != "token" || cfg.Storage.ProfileKey != "userProfile" {
		t.Fatalf("unexpected storage keys: %+v", cfg.Storage)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "custom absolute paths valid",
			mutate:    func(c *Config) { c.Guard.LoginPath = "/login"; c.Guard.HomePath = "/dashboard" },
			wantValid: true,
		},
		{
			name:      "relative login path invalid",
			mutate:    func(c *Config) { c.Guard.LoginPath = "login" },
			wantValid: false,
		},
		{
			name:      "relative home path invalid",
			mutate:    func(c *Config) { c.Guard.HomePath = "issue" },
			wantValid: false,
		},
		{
			name:      "identical paths invalid",
			mutate:    func(c *Config) { c.Guard.HomePath = c.Guard.LoginPath },
			wantValid: false,
		},
		{
			name:      "zero heartbeat interval invalid",
			mutate:    func(c *Config) { c.Lock.HeartbeatInterval = 0 },
			wantValid: false,
		},
		{
			name:      "lease not exceeding heartbeat invalid",
			mutate:    func(c *Config) { c.Lock.LeaseTTL = c.Lock.HeartbeatInterval },
			wantValid: false,
		},
		{
			name:      "empty token key invalid",
			mutate:    func(c *Config) { c.Storage.TokenKey = "" },
			wantValid: false,
		},
		{
			name:      "identical storage keys invalid",
			mutate:    func(c *Config) { c.Storage.ProfileKey = c.Storage.TokenKey },
			wantValid: false,
		},
		{
			name:      "audit enabled without buffer invalid",
			mutate:    func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 },
			wantValid: false,
		},
		{
			name:      "audit enabled with buffer valid",
			mutate:    func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 16 },
			wantValid: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)

			err := validateConfig(cfg)
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestBuilderRequiresServices(t *testing.T) {
	if _, err := New().WithLockService(&fakeLockService{}).Build(); err == nil {
		t.Fatal("expected error without session service")
	}
	if _, err := New().WithSessionService(&fakeSessionService{}).Build(); err == nil {
		t.Fatal("expected error without lock service")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().
		WithSessionService(&fakeSessionService{}).
		WithLockService(&fakeLockService{})

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Lock.HeartbeatInterval = -time.Second

	_, err := New().
		WithConfig(cfg).
		WithSessionService(&fakeSessionService{}).
		WithLockService(&fakeLockService{}).
		Build()
	if err == nil {
		t.Fatal("expected Build to reject invalid config")
	}
}

func TestBuilderDefaultsToMemoryBackend(t *testing.T) {
	engine, err := New().
		WithSessionService(&fakeSessionService{}).
		WithLockService(&fakeLockService{}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	ctx := context.Background()
	if err := engine.Auth().Save(ctx, "token-1", &Profile{UserID: 7, Username: "alice"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := engine.Auth().Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !engine.Auth().IsLoggedIn() {
		t.Fatal("expected session to survive a load round trip")
	}
}
