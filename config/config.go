// Package config loads environment variables and provides a typed Config used
// by the relay, the scraper and the viewer. It applies defaults so every binary
// runs locally with no setup beyond SCRAPE_SOURCE for the scraper.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults shared across binaries.
const (
	DefaultRelayWSAddr    = ":8080"
	DefaultHTTPAddr       = ":3000"
	DefaultRelayURL       = "ws://localhost:8080"
	DefaultScrapeInterval = 500 * time.Millisecond
	DefaultScrapeWindow   = 20
	DefaultSeenCacheSize  = 1000
	DefaultReconnectDelay = 3 * time.Second
	DefaultHistoryLimit   = 1000
	DefaultPubSubChannel  = "ytchat:events"
	DefaultIngestRate     = 50
	DefaultViewerAddr     = ":3001"
	DefaultViewerAPIURL   = "http://localhost:3000"
)

type Config struct {
	// Relay
	RelayWSAddr      string
	HTTPAddr         string
	EmojiDir         string
	EmojiMapFile     string
	HistoryLimit     int
	IngestRatePerSec int

	// Storage / fan-out
	DBDsn         string
	RedisURL      string
	PubSubChannel string

	// Scraper
	RelayURL            string
	ScrapeSource        string
	ScrapeInterval      time.Duration
	ScrapeWindow        int
	ScrapeMarkEmptySeen bool
	SeenCacheSize       int
	ReconnectDelay      time.Duration

	// Viewer
	ViewerAddr   string
	ViewerAPIURL string

	// YouTube
	YTVideoID      string
	YTAPIKey       string
	YTClientID     string
	YTClientSecret string
	YTRefreshToken string
}

// Load reads environment variables and applies defaults. Malformed durations or
// numbers are reported; missing optional values only disable features.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	cfg.RelayWSAddr = getEnv("RELAY_WS_ADDR", DefaultRelayWSAddr)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", DefaultHTTPAddr)
	cfg.EmojiDir = getEnv("EMOJI_DIR", "./emojis")
	cfg.EmojiMapFile = os.Getenv("EMOJI_MAP_FILE")
	if cfg.HistoryLimit, err = getEnvInt("HISTORY_LIMIT", DefaultHistoryLimit); err != nil {
		return nil, err
	}
	if cfg.IngestRatePerSec, err = getEnvInt("INGEST_RATE_PER_SEC", DefaultIngestRate); err != nil {
		return nil, err
	}

	cfg.DBDsn = os.Getenv("DB_DSN")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.PubSubChannel = getEnv("PUBSUB_CHANNEL", DefaultPubSubChannel)

	cfg.RelayURL = getEnv("RELAY_URL", DefaultRelayURL)
	cfg.ScrapeSource = os.Getenv("SCRAPE_SOURCE")
	if cfg.ScrapeInterval, err = getEnvDuration("SCRAPE_INTERVAL", DefaultScrapeInterval); err != nil {
		return nil, err
	}
	if cfg.ScrapeWindow, err = getEnvInt("SCRAPE_WINDOW", DefaultScrapeWindow); err != nil {
		return nil, err
	}
	cfg.ScrapeMarkEmptySeen = getEnvBool("SCRAPE_MARK_EMPTY_SEEN", true)
	if cfg.SeenCacheSize, err = getEnvInt("SEEN_CACHE_SIZE", DefaultSeenCacheSize); err != nil {
		return nil, err
	}
	if cfg.ReconnectDelay, err = getEnvDuration("RECONNECT_DELAY", DefaultReconnectDelay); err != nil {
		return nil, err
	}

	cfg.ViewerAddr = getEnv("VIEWER_ADDR", DefaultViewerAddr)
	cfg.ViewerAPIURL = strings.TrimRight(getEnv("VIEWER_API_URL", DefaultViewerAPIURL), "/")

	cfg.YTVideoID = os.Getenv("YT_VIDEO_ID")
	cfg.YTAPIKey = os.Getenv("YT_API_KEY")
	cfg.YTClientID = os.Getenv("YT_CLIENT_ID")
	cfg.YTClientSecret = os.Getenv("YT_CLIENT_SECRET")
	cfg.YTRefreshToken = os.Getenv("YT_REFRESH_TOKEN")

	return cfg, nil
}

// ValidateScraper checks the fields the scraper cannot run without.
func (c *Config) ValidateScraper() error {
	if c.ScrapeSource == "" {
		if c.YTVideoID != "" {
			// the live_chat page builds its items in the browser; a plain fetch has none
			return fmt.Errorf("missing scraper env: YT_VIDEO_ID alone cannot be scraped, set SCRAPE_SOURCE to a rendered live chat snapshot (file or URL)")
		}
		return fmt.Errorf("missing scraper env: require SCRAPE_SOURCE (html snapshot file or URL)")
	}
	if c.ScrapeInterval <= 0 || c.ScrapeWindow <= 0 || c.SeenCacheSize <= 0 {
		return fmt.Errorf("SCRAPE_INTERVAL, SCRAPE_WINDOW and SEEN_CACHE_SIZE must be positive")
	}
	return nil
}

// YouTubeEnabled reports whether any YouTube Data API credential is configured.
func (c *Config) YouTubeEnabled() bool {
	return c.YTAPIKey != "" || (c.YTClientID != "" && c.YTClientSecret != "" && c.YTRefreshToken != "")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s (duration like 500ms): %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, def bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return def
	}
}
