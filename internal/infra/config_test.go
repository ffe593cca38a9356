package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PIXVERSE_API_KEY", "test-key")
	t.Setenv("PORT", "")
	t.Setenv("PIXVERSE_BASE_URL", "")
	t.Setenv("POLL_INTERVAL_SECONDS", "")
	t.Setenv("POLL_MAX_TICKS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "4000" {
		t.Fatalf("Port = %q, want 4000", cfg.Port)
	}
	if cfg.PixverseBaseURL != "https://app-api.pixverse.ai" {
		t.Fatalf("PixverseBaseURL = %q", cfg.PixverseBaseURL)
	}
	if cfg.PollInterval != 4*time.Second {
		t.Fatalf("PollInterval = %v, want 4s", cfg.PollInterval)
	}
	if cfg.PollMaxTicks != 90 {
		t.Fatalf("PollMaxTicks = %d, want 90", cfg.PollMaxTicks)
	}
	if cfg.ProgressInterval != 800*time.Millisecond {
		t.Fatalf("ProgressInterval = %v, want 800ms", cfg.ProgressInterval)
	}
	if cfg.HistoryDir == "" {
		t.Fatalf("HistoryDir must have a default")
	}
}

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	t.Setenv("PIXVERSE_API_KEY", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestLoadConfigHonorsOverrides(t *testing.T) {
	t.Setenv("PIXVERSE_API_KEY", "test-key")
	t.Setenv("POLL_INTERVAL_SECONDS", "1")
	t.Setenv("POLL_MAX_TICKS", "10")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "5")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PollInterval != time.Second {
		t.Fatalf("PollInterval = %v, want 1s", cfg.PollInterval)
	}
	if cfg.PollMaxTicks != 10 {
		t.Fatalf("PollMaxTicks = %d, want 10", cfg.PollMaxTicks)
	}
	if cfg.RateLimitPerMin != 5 {
		t.Fatalf("RateLimitPerMin = %d, want 5", cfg.RateLimitPerMin)
	}
}
