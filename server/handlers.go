package server

import (
	"context"
	"sync"
	"time"

	"github.com/onnwee/ytchat-relay/emoji"
	"github.com/onnwee/ytchat-relay/store"
	"github.com/onnwee/ytchat-relay/youtubeapi"
)

// ClientCounter reports connected WebSocket clients; *hub.Hub satisfies it.
type ClientCounter interface {
	ClientCount() int
	Node() string
}

// StreamLookup resolves stream metadata; *youtubeapi.Service satisfies it.
type StreamLookup interface {
	LookupStream(ctx context.Context, videoID string) (*youtubeapi.Stream, error)
}

// Deps are the collaborators the HTTP API reads from.
type Deps struct {
	Store        store.Store
	Hub          ClientCounter
	Emojis       emoji.Map
	EmojiDir     string
	HistoryLimit int
	// Optional stream metadata for /status.
	YouTube StreamLookup
	VideoID string
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	deps Deps

	streamMu      sync.Mutex
	streamCached  *youtubeapi.Stream
	streamErr     error
	streamFetched time.Time
}

const streamCacheTTL = 30 * time.Second

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(deps Deps) *Handlers {
	if deps.HistoryLimit <= 0 {
		deps.HistoryLimit = store.DefaultLimit
	}
	if deps.Emojis == nil {
		deps.Emojis = emoji.Map{}
	}
	return &Handlers{deps: deps}
}

// stream returns cached stream metadata, refreshing it at most every
// streamCacheTTL to stay within the API quota.
func (h *Handlers) stream(ctx context.Context) (*youtubeapi.Stream, error) {
	if h.deps.YouTube == nil || h.deps.VideoID == "" {
		return nil, nil
	}
	h.streamMu.Lock()
	defer h.streamMu.Unlock()
	if !h.streamFetched.IsZero() && time.Since(h.streamFetched) < streamCacheTTL {
		return h.streamCached, h.streamErr
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	h.streamCached, h.streamErr = h.deps.YouTube.LookupStream(ctx, h.deps.VideoID)
	h.streamFetched = time.Now()
	return h.streamCached, h.streamErr
}
