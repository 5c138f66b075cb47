// Package telemetry provides Prometheus metrics, OpenTelemetry tracing and
// correlation-id aware logging helpers shared by the relay, scraper and viewer.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Scraper
	ScrapeScans       prometheus.Counter
	EventsForwarded   *prometheus.CounterVec // kind=chat|membership
	EventsUnsent      prometheus.Counter     // connection not open
	EventsEmpty       prometheus.Counter
	ExtractFailures   prometheus.Counter
	SeenEvictions     prometheus.Counter
	SeenCacheSize     prometheus.Gauge
	ScanDuration      prometheus.Observer
	SnapshotFailures  prometheus.Counter
	RelayReconnects   prometheus.Counter
	RelayConnected    prometheus.Gauge // 1=open,0=otherwise
	ViewerEvents      prometheus.Gauge
	MalformedMessages prometheus.Counter

	// Relay hub
	HubClients        prometheus.Gauge
	HubIngested       prometheus.Counter
	HubRateLimited    prometheus.Counter
	HubBroadcasts     prometheus.Counter
	HubSlowClients    prometheus.Counter
	HistoryAppendErrs prometheus.Counter
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		ScrapeScans = promauto.NewCounter(prometheus.CounterOpts{Name: "ytchat_scrape_scans_total", Help: "Number of DOM scans performed"})
		EventsForwarded = promauto.NewCounterVec(prometheus.CounterOpts{Name: "ytchat_events_forwarded_total", Help: "Chat events sent to the relay"}, []string{"kind"})
		EventsUnsent = promauto.NewCounter(prometheus.CounterOpts{Name: "ytchat_events_unsent_total", Help: "Events dropped because the relay connection was not open"})
		EventsEmpty = promauto.NewCounter(prometheus.CounterOpts{Name: "ytchat_events_empty_total", Help: "Chat items discarded for an empty message"})
		ExtractFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "ytchat_extract_failures_total", Help: "Chat items whose extraction failed"})
		SeenEvictions = promauto.NewCounter(prometheus.CounterOpts{Name: "ytchat_seen_evictions_total", Help: "Ids evicted from the seen cache"})
		SeenCacheSize = promauto.NewGauge(prometheus.GaugeOpts{Name: "ytchat_seen_cache_size", Help: "Current number of ids in the seen cache"})
		ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "ytchat_scan_duration_seconds", Help: "DOM scan duration seconds", Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12)})
		SnapshotFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "ytchat_snapshot_failures_total", Help: "DOM snapshot reads that failed"})
		RelayReconnects = promauto.NewCounter(prometheus.CounterOpts{Name: "ytchat_relay_reconnects_total", Help: "Reconnect attempts scheduled after a close"})
		RelayConnected = promauto.NewGauge(prometheus.GaugeOpts{Name: "ytchat_relay_connected", Help: "Relay connection open=1 otherwise=0"})
		ViewerEvents = promauto.NewGauge(prometheus.GaugeOpts{Name: "ytchat_viewer_events", Help: "Events held by the viewer"})
		MalformedMessages = promauto.NewCounter(prometheus.CounterOpts{Name: "ytchat_malformed_messages_total", Help: "Inbound messages that were not valid chat events"})
		HubClients = promauto.NewGauge(prometheus.GaugeOpts{Name: "ytchat_hub_clients", Help: "Connected WebSocket clients"})
		HubIngested = promauto.NewCounter(prometheus.CounterOpts{Name: "ytchat_hub_ingested_total", Help: "Valid chat events accepted by the hub"})
		HubRateLimited = promauto.NewCounter(prometheus.CounterOpts{Name: "ytchat_hub_rate_limited_total", Help: "Inbound messages dropped by the per-client rate limit"})
		HubBroadcasts = promauto.NewCounter(prometheus.CounterOpts{Name: "ytchat_hub_broadcasts_total", Help: "Events fanned out to clients"})
		HubSlowClients = promauto.NewCounter(prometheus.CounterOpts{Name: "ytchat_hub_slow_clients_total", Help: "Clients dropped because their send buffer was full"})
		HistoryAppendErrs = promauto.NewCounter(prometheus.CounterOpts{Name: "ytchat_history_append_errors_total", Help: "Failed history store appends"})
	})
}

// Inc increments c if it has been registered.
func Inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// SetGauge sets g if it has been registered.
func SetGauge(g prometheus.Gauge, v float64) {
	if g != nil {
		g.Set(v)
	}
}

// IncForwarded counts one forwarded event of the given kind.
func IncForwarded(kind string) {
	if EventsForwarded != nil {
		EventsForwarded.WithLabelValues(kind).Inc()
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
