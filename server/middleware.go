package server

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/onnwee/ytchat-relay/telemetry"
)

// authConfig holds admin credentials loaded from environment
type authConfig struct {
	adminUsername string
	adminPassword string
	adminToken    string
	enabled       bool
}

func loadAuthConfig() *authConfig {
	cfg := &authConfig{
		adminUsername: os.Getenv("ADMIN_USERNAME"),
		adminPassword: os.Getenv("ADMIN_PASSWORD"),
		adminToken:    os.Getenv("ADMIN_TOKEN"),
	}
	cfg.enabled = (cfg.adminUsername != "" && cfg.adminPassword != "") || cfg.adminToken != ""
	if !cfg.enabled {
		slog.Warn("admin authentication not configured - admin endpoints are UNPROTECTED. Set ADMIN_USERNAME+ADMIN_PASSWORD or ADMIN_TOKEN")
	}
	return cfg
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// adminAuth protects admin endpoints with an X-Admin-Token header or Basic Auth.
// With nothing configured every request passes (dev mode).
func adminAuth(next http.Handler, cfg *authConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !cfg.enabled {
			next.ServeHTTP(w, r)
			return
		}
		if cfg.adminToken != "" {
			if token := r.Header.Get("X-Admin-Token"); token != "" && constantTimeEqual(token, cfg.adminToken) {
				next.ServeHTTP(w, r)
				return
			}
		}
		if cfg.adminUsername != "" && cfg.adminPassword != "" {
			if user, pass, ok := r.BasicAuth(); ok && constantTimeEqual(user, cfg.adminUsername) && constantTimeEqual(pass, cfg.adminPassword) {
				next.ServeHTTP(w, r)
				return
			}
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="ytchat-relay admin"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		slog.Warn("admin auth failed", slog.String("path", r.URL.Path), slog.String("remote_addr", r.RemoteAddr))
	})
}

// rateLimiterConfig allows requestsPerIP per window, refilled evenly.
type rateLimiterConfig struct {
	enabled       bool
	requestsPerIP int
	window        time.Duration
}

func loadRateLimiterConfig() *rateLimiterConfig {
	cfg := &rateLimiterConfig{
		enabled:       os.Getenv("RATE_LIMIT_ENABLED") != "0",
		requestsPerIP: 10,
		window:        time.Minute,
	}
	if n := parseInt(os.Getenv("RATE_LIMIT_REQUESTS_PER_IP"), 0); n > 0 {
		cfg.requestsPerIP = n
	}
	if n := parseInt(os.Getenv("RATE_LIMIT_WINDOW_SECONDS"), 0); n > 0 {
		cfg.window = time.Duration(n) * time.Second
	}
	return cfg
}

// ipRateLimiter keeps one token bucket per client IP.
type ipRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	cfg      *rateLimiterConfig
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newIPRateLimiter starts a cleanup goroutine that lives as long as ctx.
func newIPRateLimiter(ctx context.Context, cfg *rateLimiterConfig) *ipRateLimiter {
	rl := &ipRateLimiter{visitors: make(map[string]*visitor), cfg: cfg}
	go rl.cleanupLoop(ctx)
	return rl
}

func (rl *ipRateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-ctx.Done():
			return
		}
	}
}

// cleanup forgets visitors idle for two windows.
func (rl *ipRateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.cfg.window*2 {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *ipRateLimiter) allow(ip string) bool {
	if !rl.cfg.enabled {
		return true
	}
	rl.mu.Lock()
	v, ok := rl.visitors[ip]
	if !ok {
		every := rl.cfg.window / time.Duration(rl.cfg.requestsPerIP)
		v = &visitor{limiter: rate.NewLimiter(rate.Every(every), rl.cfg.requestsPerIP)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	rl.mu.Unlock()
	return v.limiter.Allow()
}

// clientIP prefers the first X-Forwarded-For entry, then RemoteAddr, without port.
func clientIP(r *http.Request) string {
	ip := r.RemoteAddr
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ = strings.Cut(fwd, ",")
		ip = strings.TrimSpace(ip)
	}
	if host, _, err := net.SplitHostPort(ip); err == nil {
		return host
	}
	return ip
}

func rateLimitMiddleware(next http.Handler, limiter *ipRateLimiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !limiter.allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(int(limiter.cfg.window.Seconds())))
			http.Error(w, "Too Many Requests - rate limit exceeded", http.StatusTooManyRequests)
			slog.Warn("rate limit exceeded", slog.String("ip", ip), slog.String("path", r.URL.Path))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// parseInt parses s, returning defaultVal on error
func parseInt(s string, defaultVal int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultVal
	}
	return n
}

// corsConfig: permissive in dev, restricted to allowedOrigins otherwise.
type corsConfig struct {
	allowedOrigins []string
	permissive     bool
}

func loadCORSConfig() *corsConfig {
	mode := strings.ToLower(os.Getenv("ENV"))
	cfg := &corsConfig{permissive: mode == "" || mode == "dev" || mode == "development"}
	if v := os.Getenv("CORS_PERMISSIVE"); v != "" {
		cfg.permissive = v == "1" || v == "true"
	}
	for _, origin := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.allowedOrigins = append(cfg.allowedOrigins, origin)
		}
	}
	if !cfg.permissive && len(cfg.allowedOrigins) == 0 {
		slog.Warn("CORS restricted mode enabled but no CORS_ALLOWED_ORIGINS configured - all CORS requests will be blocked")
	}
	return cfg
}

const (
	corsMethods = "GET, DELETE, OPTIONS"
	corsHeaders = "Content-Type, Authorization, X-Admin-Token, X-Correlation-ID"
)

func withCORSConfig(next http.Handler, cfg *corsConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case cfg.permissive:
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", corsMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsHeaders)
		case origin != "" && isOriginAllowed(origin, cfg.allowedOrigins):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", corsMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsHeaders)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// isOriginAllowed matches exact origins and "*.domain" wildcards, which also
// admit the bare domain.
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if origin == allowed {
			return true
		}
		if domain, ok := strings.CutPrefix(allowed, "*."); ok {
			if strings.HasSuffix(origin, "."+domain) || origin == "https://"+domain || origin == "http://"+domain {
				return true
			}
		}
	}
	return false
}

// withCorrelation reuses or assigns X-Correlation-ID, opens a span per request
// named after the matched route and records the response status on it.
func withCorrelation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corr := r.Header.Get("X-Correlation-ID")
		if corr == "" {
			corr = uuid.New().String()
		}
		ctx := telemetry.WithCorrelation(r.Context(), corr)
		w.Header().Set("X-Correlation-ID", corr)

		ctx, span := telemetry.StartSpan(ctx, "http-server", r.Method, telemetry.HTTPAttrs(r.Method, r.URL.Path)...)
		defer span.End()
		telemetry.LoggerWithCorr(ctx).Debug("request start", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.String("component", "http"))

		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		req := r.WithContext(ctx)
		next.ServeHTTP(rec, req)
		// ServeMux records the matched pattern on the request it routed
		route := req.Pattern
		if route == "" {
			route = "unmatched"
		}
		telemetry.SetSpanRoute(span, r.Method, route)
		telemetry.SetSpanHTTPStatus(span, rec.statusCode)
	})
}

// statusRecorder wraps ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it
func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
