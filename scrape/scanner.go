package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/onnwee/ytchat-relay/chat"
	"github.com/onnwee/ytchat-relay/dedup"
	"github.com/onnwee/ytchat-relay/telemetry"
)

// DefaultWindow is how many of the most recent items of each kind are examined
// per scan.
const DefaultWindow = 20

const (
	kindChat       = "chat"
	kindMembership = "membership"
)

// Sender transmits one serialized event. It returns false when the message was
// dropped because the connection is not open.
type Sender interface {
	Send(data []byte) bool
}

// ScanResult counts what happened to the candidates of one scan.
type ScanResult struct {
	Forwarded int // sent over an open connection
	Unsent    int // new, but the connection was not open
	Empty     int // chat items with an empty message
	Duplicate int // already seen
	Failed    int // extraction error or panic
	NoID      int // items without an id attribute
}

// Scanner owns the seen-id cache and turns new DOM items into sent events.
// Scans are serialized, so Scan may be called from several goroutines without
// an id being forwarded twice.
type Scanner struct {
	mu            sync.Mutex
	seen          *dedup.SeenCache
	sender        Sender
	window        int
	markEmptySeen bool
	now           func() time.Time
	logger        *slog.Logger
}

type ScannerOption func(*Scanner)

// WithWindow sets how many trailing items of each kind are examined.
func WithWindow(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.window = n
		}
	}
}

// WithMarkEmptySeen controls whether an item whose message is empty is
// remembered. When false the item is re-examined on later scans, so a message
// filled in by a later DOM update is still forwarded.
func WithMarkEmptySeen(mark bool) ScannerOption {
	return func(s *Scanner) { s.markEmptySeen = mark }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) ScannerOption {
	return func(s *Scanner) { s.now = now }
}

// WithLogger sets the logger used for per-item failures.
func WithLogger(l *slog.Logger) ScannerOption {
	return func(s *Scanner) { s.logger = l }
}

// NewScanner returns a Scanner sending through sender and remembering ids in seen.
func NewScanner(seen *dedup.SeenCache, sender Sender, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		seen:          seen,
		sender:        sender,
		window:        DefaultWindow,
		markEmptySeen: true,
		now:           time.Now,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan examines the trailing window of chat items, then of membership items.
// A failure on one item is logged and does not stop the scan.
func (s *Scanner) Scan(ctx context.Context, doc Document) ScanResult {
	chatItems := Tail(doc.ChatItems(), s.window)
	membershipItems := Tail(doc.MembershipItems(), s.window)

	_, span := telemetry.StartSpan(ctx, "scraper", "scan", telemetry.ScanAttrs(len(chatItems), len(membershipItems))...)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	var res ScanResult
	for _, el := range chatItems {
		s.process(el, kindChat, &res)
	}
	for _, el := range membershipItems {
		s.process(el, kindMembership, &res)
	}
	if res.Failed > 0 {
		telemetry.RecordError(span, fmt.Errorf("%d items failed extraction", res.Failed))
	}
	telemetry.Inc(telemetry.ScrapeScans)
	telemetry.SetGauge(telemetry.SeenCacheSize, float64(s.seen.Len()))
	return res
}

func (s *Scanner) process(el Element, kind string, res *ScanResult) {
	id := el.ID()
	if id == "" {
		res.NoID++
		return
	}
	if s.seen.Seen(id) {
		res.Duplicate++
		return
	}

	ev, ok, err := s.extract(el, kind)
	if err != nil {
		res.Failed++
		telemetry.Inc(telemetry.ExtractFailures)
		s.logger.Error("chat item extraction failed", slog.String("id", id), slog.String("kind", kind), slog.Any("err", err))
		return
	}
	if !ok {
		res.Empty++
		telemetry.Inc(telemetry.EventsEmpty)
		if s.markEmptySeen {
			s.remember(id)
		}
		return
	}

	data, err := chat.Encode(ev)
	if err != nil {
		res.Failed++
		telemetry.Inc(telemetry.ExtractFailures)
		s.logger.Error("chat item encode failed", slog.String("id", id), slog.Any("err", err))
		return
	}
	if s.sender.Send(data) {
		res.Forwarded++
		telemetry.IncForwarded(kind)
		s.logger.Debug("sent", slog.String("author", ev.Author), slog.String("message", ev.Message))
	} else {
		res.Unsent++
		telemetry.Inc(telemetry.EventsUnsent)
	}
	s.remember(id)
}

func (s *Scanner) remember(id string) {
	if old, evicted := s.seen.Add(id); evicted {
		telemetry.Inc(telemetry.SeenEvictions)
		s.logger.Debug("seen cache evicted oldest id", slog.String("id", old), slog.Int("size", s.seen.Len()))
	}
}

// extract normalizes el, converting a panic in the DOM accessors into an error.
func (s *Scanner) extract(el Element, kind string) (ev chat.Event, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic extracting %s item: %v", kind, r)
		}
	}()
	now := s.now()
	if kind == kindMembership {
		return NormalizeMembership(el, now), true, nil
	}
	ev, ok = NormalizeChat(el, now)
	return ev, ok, nil
}
