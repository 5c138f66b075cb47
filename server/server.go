// Package server exposes the relay's HTTP API: chat history, the emoji map and
// files, health, status and metrics. It includes permissive CORS for
// development and injects correlation IDs into request contexts for consistent
// logging.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMux returns the HTTP handler with all routes.
// The provided context is used for rate limiter cleanup goroutines lifecycle.
func NewMux(ctx context.Context, deps Deps) http.Handler {
	authCfg := loadAuthConfig()
	rateLimiter := newIPRateLimiter(ctx, loadRateLimiterConfig())
	corsCfg := loadCORSConfig()

	handlers := NewHandlers(deps)
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", handlers.HandleHealthz)
	mux.HandleFunc("/readyz", handlers.HandleReadyz)
	mux.HandleFunc("/status", handlers.HandleStatus)

	mux.HandleFunc("/api/chats", handlers.HandleChats)
	mux.HandleFunc("/api/emojis", handlers.HandleEmojis)
	if deps.EmojiDir != "" {
		mux.Handle("/emojis/", http.StripPrefix("/emojis/", http.FileServer(http.Dir(deps.EmojiDir))))
	}

	mux.HandleFunc("/admin/chats", handlers.HandleAdminChats)

	// auth then rate limiting on /admin/
	selective := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/admin/") {
			adminAuth(rateLimitMiddleware(mux, rateLimiter), authCfg).ServeHTTP(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})
	return withCORSConfig(withCorrelation(selective), corsCfg)
}

// Start runs an HTTP server for handler and shuts down gracefully on context
// cancellation.
func Start(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		// WithoutCancel keeps context values but lets shutdown finish
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.String("addr", addr), slog.Any("err", err))
		}
	}()

	slog.Info("http server listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server error", slog.String("addr", addr), slog.Any("err", err))
		return err
	}
	return nil
}
