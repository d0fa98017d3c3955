package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Retry.MaxAttempts != 5 || cfg.Retry.BaseDelay != 10*time.Millisecond {
		t.Errorf("unexpected retry defaults %+v", cfg.Retry)
	}
	if cfg.Fare.MinCents != 500 || cfg.Fare.MaxCents != 20000 {
		t.Errorf("unexpected fare defaults %+v", cfg.Fare)
	}
	if cfg.Wallet.MinTopUpCents != 2000 || cfg.Wallet.Currency != "myr" {
		t.Errorf("unexpected wallet defaults %+v", cfg.Wallet)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("TX_MAX_ATTEMPTS", "9")
	t.Setenv("TX_RETRY_MAX_DELAY", "1s")
	t.Setenv("FARE_PER_KM_CENTS", "175")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()

	if cfg.Store.Backend != "memory" {
		t.Errorf("expected memory backend, got %s", cfg.Store.Backend)
	}
	if cfg.Retry.MaxAttempts != 9 || cfg.Retry.MaxDelay != time.Second {
		t.Errorf("unexpected retry %+v", cfg.Retry)
	}
	if cfg.Fare.PerKmCents != 175 {
		t.Errorf("expected 175, got %d", cfg.Fare.PerKmCents)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("unexpected origins %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Database.AutoMigrate {
		t.Error("expected auto migrate disabled")
	}
	if cfg.Redis.DB != 0 {
		t.Errorf("expected invalid REDIS_DB to fall back to 0, got %d", cfg.Redis.DB)
	}
}
