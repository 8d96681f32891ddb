package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/iho/walletledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.JWTSecret != "" {
		t.Fatalf("expected JWT secret default to be empty, got %q", cfg.JWTSecret)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.StorageDriver != config.StoragePostgres {
		t.Fatalf("expected postgres storage by default, got %s", cfg.StorageDriver)
	}

	if cfg.NotifyChannel != "wallet_notifications" {
		t.Fatalf("expected default notify channel, got %s", cfg.NotifyChannel)
	}

	if cfg.MigrationsPath != "migrations" || !cfg.RunMigrations {
		t.Fatalf("expected migrations to run from ./migrations, got %s %v", cfg.MigrationsPath, cfg.RunMigrations)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("DATABASE_LOCK_TIMEOUT", "2s")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("HOLD_SWEEP_INTERVAL", "30s")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second || cfg.DatabaseLockTimeout != 2*time.Second {
		t.Fatalf("expected database timeout overrides, got %s %s", cfg.DatabaseTimeout, cfg.DatabaseLockTimeout)
	}

	if cfg.JWTSecret != "top-secret" || !cfg.AuthEnabled {
		t.Fatalf("expected auth settings to be set, got secret=%s enabled=%v", cfg.JWTSecret, cfg.AuthEnabled)
	}

	if cfg.StorageDriver != config.StorageMemory || cfg.RateLimitRPS != 2.5 || cfg.HoldSweepInterval != 30*time.Second {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadRejectsInvalidCombinations(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown storage", env: map[string]string{"STORAGE_DRIVER": "sqlite"}},
		{name: "auth without secret", env: map[string]string{"AUTH_ENABLED": "true", "JWT_SECRET": ""}},
		{name: "negative burst", env: map[string]string{"RATE_LIMIT_BURST": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := config.Load(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
