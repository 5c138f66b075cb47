// Command scraper polls the live-chat DOM snapshot, turns each new chat or
// membership item into a chat event and forwards it to the relay over a
// WebSocket that reconnects on its own.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/ytchat-relay/config"
	"github.com/onnwee/ytchat-relay/dedup"
	"github.com/onnwee/ytchat-relay/relay"
	"github.com/onnwee/ytchat-relay/scrape"
	"github.com/onnwee/ytchat-relay/server"
	"github.com/onnwee/ytchat-relay/telemetry"
	"github.com/onnwee/ytchat-relay/youtubeapi"
)

func main() {
	_ = godotenv.Load()
	logger := telemetry.SetupLogger(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateScraper(); err != nil {
		slog.Error("scraper disabled", slog.Any("err", err))
		os.Exit(1)
	}

	telemetry.Init()
	shutdown, err := telemetry.InitTracing("ytchat-scraper", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logStream(ctx, cfg)

	conn := relay.New(cfg.RelayURL,
		relay.WithReconnectDelay(cfg.ReconnectDelay),
		relay.WithLogger(logger.With(slog.String("component", "relay"))),
	)
	go conn.Run(ctx)

	scanner := scrape.NewScanner(dedup.NewSeenCache(cfg.SeenCacheSize), conn,
		scrape.WithWindow(cfg.ScrapeWindow),
		scrape.WithMarkEmptySeen(cfg.ScrapeMarkEmptySeen),
		scrape.WithLogger(logger.With(slog.String("component", "scraper"))),
	)

	// METRICS_ADDR exposes /metrics for this process; off by default
	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := server.Start(ctx, addr, mux); err != nil {
				slog.Error("metrics server exited with error", slog.Any("err", err))
			}
		}()
	}

	slog.Info("scraper starting",
		slog.String("source", cfg.ScrapeSource),
		slog.String("relay", conn.URL()),
		slog.Int("window", cfg.ScrapeWindow),
		slog.Int("seen_cache", cfg.SeenCacheSize))
	scrape.Run(ctx, scrape.NewSource(cfg.ScrapeSource), scanner, cfg.ScrapeInterval)
	slog.Info("shutting down")
}

// logStream reports which stream is being scraped when YouTube credentials
// are configured. Failures only cost the log line.
func logStream(ctx context.Context, cfg *config.Config) {
	if cfg.YTVideoID == "" || !cfg.YouTubeEnabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()
	yt, err := youtubeapi.New(ctx, youtubeapi.CredentialsFromConfig(cfg))
	if err != nil {
		slog.Warn("youtube api unavailable", slog.Any("err", err))
		return
	}
	st, err := yt.LookupStream(ctx, cfg.YTVideoID)
	if err != nil {
		slog.Warn("stream lookup failed", slog.String("video_id", cfg.YTVideoID), slog.Any("err", err))
		return
	}
	slog.Info("stream resolved",
		slog.String("title", st.Title),
		slog.String("channel", st.Channel),
		slog.Bool("live", st.Live),
		slog.String("chat_url", st.ChatURL))
}
