package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load with defaults failed: %v", err)
	}

	if cfg.VendorHTTP.Retries != 2 {
		t.Fatalf("expected 2 retries, got %d", cfg.VendorHTTP.Retries)
	}
	if cfg.VendorHTTP.AttemptTimeout != 2*time.Second {
		t.Fatalf("expected 2s attempt timeout, got %s", cfg.VendorHTTP.AttemptTimeout)
	}
	if cfg.Breaker.FailureThreshold != 3 {
		t.Fatalf("expected failure threshold 3, got %d", cfg.Breaker.FailureThreshold)
	}
	if cfg.Breaker.Cooldown != 30*time.Second {
		t.Fatalf("expected 30s cooldown, got %s", cfg.Breaker.Cooldown)
	}
	if cfg.Cache.TTL != 120*time.Second {
		t.Fatalf("expected 120s cache ttl, got %s", cfg.Cache.TTL)
	}
	if cfg.Scheduler.Interval != 30*time.Minute {
		t.Fatalf("expected 30m scheduler interval, got %s", cfg.Scheduler.Interval)
	}
	if len(cfg.Vendors) != 3 {
		t.Fatalf("expected 3 default vendors, got %d", len(cfg.Vendors))
	}
}

func TestValidateRejectsDuplicateVendors(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	cfg.Vendors = []VendorConfig{
		{ID: "vendor-a", Format: "alpha", BaseURL: "http://localhost/a"},
		{ID: "vendor-a", Format: "beta", BaseURL: "http://localhost/b"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("duplicate vendor ids should fail validation")
	}
}

func TestValidateRequiresTelegramCredentials(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	cfg.Alerting.Telegram.Enabled = true
	cfg.Alerting.Telegram.BotToken = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled telegram without a bot token should fail validation")
	}
}
