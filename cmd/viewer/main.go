// Command viewer connects to the relay and serves the live chat list, with
// emoji substitution, to a browser on VIEWER_ADDR.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/ytchat-relay/config"
	"github.com/onnwee/ytchat-relay/relay"
	"github.com/onnwee/ytchat-relay/server"
	"github.com/onnwee/ytchat-relay/telemetry"
	"github.com/onnwee/ytchat-relay/viewer"
)

func main() {
	_ = godotenv.Load()
	logger := telemetry.SetupLogger(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	telemetry.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	v := viewer.New(logger.With(slog.String("component", "viewer")))
	api := viewer.NewAPIClient(cfg.ViewerAPIURL)

	resync := func() {
		sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := v.Sync(sctx, api); err != nil {
			slog.Warn("viewer: history sync failed", slog.String("api", cfg.ViewerAPIURL), slog.Any("err", err))
			return
		}
		slog.Info("viewer: history synced", slog.Int("events", len(v.Events())), slog.Int("emojis", len(v.Emojis())))
	}

	conn := relay.New(cfg.RelayURL,
		relay.WithReconnectDelay(cfg.ReconnectDelay),
		relay.WithLogger(logger.With(slog.String("component", "relay"))),
		relay.OnMessage(func(raw []byte) { _ = v.Receive(raw) }),
		relay.OnOpen(func() { go resync() }),
	)
	go conn.Run(ctx)

	if err := server.Start(ctx, cfg.ViewerAddr, viewer.NewHandler(v)); err != nil {
		slog.Error("viewer server exited with error", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("shutting down")
}
