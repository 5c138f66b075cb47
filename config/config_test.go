package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"RELAY_URL", "SCRAPE_INTERVAL", "SCRAPE_WINDOW", "SEEN_CACHE_SIZE", "RECONNECT_DELAY", "SCRAPE_MARK_EMPTY_SEEN", "VIEWER_API_URL"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.RelayURL != DefaultRelayURL {
		t.Errorf("RelayURL = %q", cfg.RelayURL)
	}
	if cfg.ScrapeInterval != 500*time.Millisecond {
		t.Errorf("ScrapeInterval = %v", cfg.ScrapeInterval)
	}
	if cfg.ScrapeWindow != 20 || cfg.SeenCacheSize != 1000 {
		t.Errorf("window/cache = %d/%d", cfg.ScrapeWindow, cfg.SeenCacheSize)
	}
	if cfg.ReconnectDelay != 3*time.Second {
		t.Errorf("ReconnectDelay = %v", cfg.ReconnectDelay)
	}
	if !cfg.ScrapeMarkEmptySeen {
		t.Error("ScrapeMarkEmptySeen should default to true")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SCRAPE_INTERVAL", "250ms")
	t.Setenv("SEEN_CACHE_SIZE", "10")
	t.Setenv("SCRAPE_MARK_EMPTY_SEEN", "0")
	t.Setenv("VIEWER_API_URL", "http://relay:3000/")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ScrapeInterval != 250*time.Millisecond || cfg.SeenCacheSize != 10 || cfg.ScrapeMarkEmptySeen {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.ViewerAPIURL != "http://relay:3000" {
		t.Errorf("ViewerAPIURL = %q", cfg.ViewerAPIURL)
	}
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("SCRAPE_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid SCRAPE_INTERVAL")
	}
	t.Setenv("SCRAPE_INTERVAL", "")
	t.Setenv("HISTORY_LIMIT", "lots")
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid HISTORY_LIMIT")
	}
}

func TestValidateScraper(t *testing.T) {
	t.Setenv("SCRAPE_SOURCE", "")
	t.Setenv("YT_VIDEO_ID", "")
	cfg, _ := Load()
	if err := cfg.ValidateScraper(); err == nil {
		t.Error("expected error without SCRAPE_SOURCE")
	}
	// a video id does not stand in for a snapshot source
	t.Setenv("YT_VIDEO_ID", "abc123")
	cfg, _ = Load()
	err := cfg.ValidateScraper()
	if err == nil || !strings.Contains(err.Error(), "SCRAPE_SOURCE") {
		t.Errorf("ValidateScraper() = %v, want SCRAPE_SOURCE error", err)
	}
	if cfg.ScrapeSource != "" {
		t.Errorf("ScrapeSource = %q, want empty", cfg.ScrapeSource)
	}
	t.Setenv("SCRAPE_SOURCE", "chat.html")
	cfg, _ = Load()
	if err := cfg.ValidateScraper(); err != nil {
		t.Errorf("ValidateScraper() error: %v", err)
	}
}

func TestYouTubeEnabled(t *testing.T) {
	cfg := &Config{}
	if cfg.YouTubeEnabled() {
		t.Error("no credentials should disable YouTube")
	}
	cfg.YTAPIKey = "k"
	if !cfg.YouTubeEnabled() {
		t.Error("api key should enable YouTube")
	}
	cfg = &Config{YTClientID: "id", YTClientSecret: "s"}
	if cfg.YouTubeEnabled() {
		t.Error("oauth without refresh token should stay disabled")
	}
	cfg.YTRefreshToken = "r"
	if !cfg.YouTubeEnabled() {
		t.Error("oauth credentials should enable YouTube")
	}
}
