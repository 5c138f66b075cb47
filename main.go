// Command ytchat-relay is the relay process between the chat scraper and the
// viewers. It:
//   - Loads configuration and initializes structured logging.
//   - Opens the chat history store (Postgres when DB_DSN is set, memory otherwise)
//     and runs migrations.
//   - Runs the WebSocket hub on RELAY_WS_ADDR, fanning events out locally or
//     across relays through Redis when REDIS_URL is set.
//   - Serves the HTTP API (/api/chats, /api/emojis, /emojis/, /status, /healthz,
//     /readyz, /metrics) on HTTP_ADDR.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/ytchat-relay/config"
	"github.com/onnwee/ytchat-relay/db"
	"github.com/onnwee/ytchat-relay/emoji"
	"github.com/onnwee/ytchat-relay/hub"
	"github.com/onnwee/ytchat-relay/pubsub"
	"github.com/onnwee/ytchat-relay/server"
	"github.com/onnwee/ytchat-relay/store"
	"github.com/onnwee/ytchat-relay/telemetry"
	"github.com/onnwee/ytchat-relay/youtubeapi"
)

func main() {
	// .env is a local dev convenience; production relies on real env
	_ = godotenv.Load()
	telemetry.SetupLogger(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	telemetry.Init()
	shutdown, err := telemetry.InitTracing("ytchat-relay", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, database, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", slog.Any("err", err))
		os.Exit(1)
	}
	if database != nil {
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()
	}

	bus, rdb, err := openBus(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect pubsub", slog.Any("err", err))
		os.Exit(1)
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	emojis, err := emoji.Load(cfg.EmojiDir, cfg.EmojiMapFile)
	if err != nil {
		slog.Error("failed to load emojis", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("emojis loaded", slog.Int("count", len(emojis)), slog.String("dir", cfg.EmojiDir))

	h := hub.New(st, bus, hub.WithIngestRate(cfg.IngestRatePerSec))
	go func() {
		if err := h.Run(ctx); err != nil {
			slog.Error("relay hub stopped", slog.Any("err", err))
			stop()
		}
	}()

	deps := server.Deps{
		Store:        st,
		Hub:          h,
		Emojis:       emojis,
		EmojiDir:     cfg.EmojiDir,
		HistoryLimit: cfg.HistoryLimit,
		VideoID:      cfg.YTVideoID,
	}
	if yt := openYouTube(ctx, cfg); yt != nil {
		deps.YouTube = yt
	}

	startPprof()

	go func() {
		if err := server.Start(ctx, cfg.RelayWSAddr, h.Handler(ctx)); err != nil {
			slog.Error("relay websocket server exited with error", slog.Any("err", err))
			stop()
		}
	}()
	go func() {
		if err := server.Start(ctx, cfg.HTTPAddr, server.NewMux(ctx, deps)); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	// let servers finish their graceful shutdown
	time.Sleep(200 * time.Millisecond)
}

// openStore returns a Postgres store when DB_DSN is set, otherwise memory.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, *sql.DB, error) {
	if cfg.DBDsn == "" {
		slog.Info("using in-memory chat history", slog.Int("limit", cfg.HistoryLimit))
		return store.NewMemory(cfg.HistoryLimit), nil, nil
	}
	database, err := db.Connect(ctx, cfg.DBDsn)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("running database migrations", slog.String("component", "db_migrate"))
	if err := db.Migrate(ctx, database); err != nil {
		_ = database.Close()
		return nil, nil, err
	}
	return store.NewPostgres(database, cfg.HistoryLimit), database, nil
}

// openBus returns a Redis bus when REDIS_URL is set, otherwise an in-process one.
func openBus(ctx context.Context, cfg *config.Config) (pubsub.PubSub[hub.Envelope], *redis.Client, error) {
	if cfg.RedisURL == "" {
		return pubsub.NewChan[hub.Envelope](), nil, nil
	}
	rdb, err := pubsub.Dial(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("relay fan-out via redis", slog.String("channel", cfg.PubSubChannel))
	return pubsub.NewRedis[hub.Envelope](cfg.PubSubChannel, rdb), rdb, nil
}

// openYouTube is best effort: /status works without stream metadata.
func openYouTube(ctx context.Context, cfg *config.Config) *youtubeapi.Service {
	if !cfg.YouTubeEnabled() || cfg.YTVideoID == "" {
		return nil
	}
	yt, err := youtubeapi.New(ctx, youtubeapi.CredentialsFromConfig(cfg))
	if err != nil {
		if !errors.Is(err, youtubeapi.ErrDisabled) {
			slog.Warn("youtube api unavailable", slog.Any("err", err))
		}
		return nil
	}
	return yt
}

// startPprof exposes /debug/pprof on PPROF_ADDR when ENABLE_PPROF=1.
func startPprof() {
	if os.Getenv("ENABLE_PPROF") != "1" {
		return
	}
	addr := os.Getenv("PPROF_ADDR")
	if addr == "" {
		addr = "localhost:6060"
	}
	go func() {
		slog.Info("pprof profiling enabled", slog.String("addr", addr))
		srv := &http.Server{
			Addr:              addr,
			Handler:           nil, // default mux exposes /debug/pprof
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		if err := srv.ListenAndServe(); err != nil {
			slog.Error("pprof server error", slog.Any("err", err))
		}
	}()
}
