// Package hub is the relay side of the chat link. It accepts WebSocket
// connections from scrapers and viewers, validates every inbound frame as a
// chat event, records it in the history store and fans it out to the other
// connected clients through a pub/sub bus.
package hub

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/onnwee/ytchat-relay/chat"
	"github.com/onnwee/ytchat-relay/pubsub"
	"github.com/onnwee/ytchat-relay/store"
	"github.com/onnwee/ytchat-relay/telemetry"
)

// ErrBusClosed is returned by Run when the bus subscription ends while the hub
// is still meant to be running.
var ErrBusClosed = errors.New("hub: bus subscription closed")

// Envelope is what travels on the bus: the event plus where it came from, so
// the originating client is skipped on broadcast.
type Envelope struct {
	Node   string     `json:"node"`
	Client uint64     `json:"client"`
	Event  chat.Event `json:"event"`
}

// Hub tracks connected clients. Registration and broadcast are serialized on
// the Run goroutine.
type Hub struct {
	node   string
	store  store.Store
	bus    pubsub.PubSub[Envelope]
	logger *slog.Logger

	ingestRate  rate.Limit
	ingestBurst int

	register   chan *Client
	unregister chan *Client
	clients    map[*Client]struct{}
	count      atomic.Int64
	nextID     atomic.Uint64
	done       chan struct{} // closed when Run returns
}

type Option func(*Hub)

// WithIngestRate limits each client to perPerSec inbound messages with a
// burst of twice that. Zero or less disables the limit.
func WithIngestRate(perSec int) Option {
	return func(h *Hub) {
		if perSec <= 0 {
			h.ingestRate = rate.Inf
			h.ingestBurst = 0
			return
		}
		h.ingestRate = rate.Limit(perSec)
		h.ingestBurst = 2 * perSec
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(h *Hub) { h.logger = l } }

// New returns a hub storing history in st and fanning out through bus.
func New(st store.Store, bus pubsub.PubSub[Envelope], opts ...Option) *Hub {
	h := &Hub{
		node:       uuid.NewString(),
		store:      st,
		bus:        bus,
		logger:     slog.Default(),
		ingestRate: rate.Inf,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Node identifies this hub instance on the bus.
func (h *Hub) Node() string { return h.node }

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int { return int(h.count.Load()) }

// Run serves registrations and bus deliveries until ctx is done, then closes
// every client. If the bus subscription ends first, Run closes every client
// and returns ErrBusClosed; the hub accepts no connections after Run returns.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	deliveries := h.bus.Subscribe(ctx)
	for {
		select {
		case <-ctx.Done():
			h.dropAll()
			return nil
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Store(int64(len(h.clients)))
			telemetry.SetGauge(telemetry.HubClients, float64(len(h.clients)))
			h.logger.Debug("hub: client connected", slog.Uint64("client", c.id), slog.String("remote", c.remote))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.logger.Debug("hub: client disconnected", slog.Uint64("client", c.id))
			}
		case res, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					h.dropAll()
					return nil
				}
				h.logger.Error("hub: bus subscription closed, refusing clients")
				h.dropAll()
				return ErrBusClosed
			}
			if res.Err != nil {
				h.logger.Warn("hub: bus delivery failed", slog.Any("err", res.Err))
				continue
			}
			h.broadcast(res.Ok)
		}
	}
}

func (h *Hub) dropAll() {
	for c := range h.clients {
		h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Store(int64(len(h.clients)))
	telemetry.SetGauge(telemetry.HubClients, float64(len(h.clients)))
}

func (h *Hub) broadcast(env Envelope) {
	data, err := chat.Encode(env.Event)
	if err != nil {
		h.logger.Error("hub: encode failed", slog.Any("err", err))
		return
	}
	for c := range h.clients {
		if env.Node == h.node && env.Client == c.id {
			continue
		}
		select {
		case c.send <- data:
			telemetry.Inc(telemetry.HubBroadcasts)
		default:
			telemetry.Inc(telemetry.HubSlowClients)
			h.logger.Warn("hub: dropping slow client", slog.Uint64("client", c.id), slog.String("remote", c.remote))
			h.drop(c)
		}
	}
}

// ingest validates, records and publishes one inbound frame from c.
func (h *Hub) ingest(ctx context.Context, c *Client, raw []byte) {
	ev, err := chat.Decode(raw)
	if err != nil {
		telemetry.Inc(telemetry.MalformedMessages)
		h.logger.Warn("hub: discarding malformed message", slog.Uint64("client", c.id), slog.Any("err", err))
		return
	}
	telemetry.Inc(telemetry.HubIngested)
	if err := h.store.Append(ctx, ev); err != nil {
		telemetry.Inc(telemetry.HistoryAppendErrs)
		h.logger.Error("hub: history append failed", slog.Any("err", err))
	}
	if err := h.bus.Publish(ctx, Envelope{Node: h.node, Client: c.id, Event: ev}); err != nil {
		h.logger.Error("hub: publish failed", slog.Any("err", err))
	}
}
