// Package viewer keeps the ordered list of received chat events and serves it
// as a live page. Every accepted event re-renders the list and pushes the
// fragment to connected browsers.
package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/onnwee/ytchat-relay/chat"
	"github.com/onnwee/ytchat-relay/render"
	"github.com/onnwee/ytchat-relay/telemetry"
)

// Viewer holds the displayed events. The list is unbounded and only grows
// until Load replaces it.
type Viewer struct {
	logger *slog.Logger

	mu     sync.RWMutex
	events []chat.Event
	emojis map[string]string

	subMu sync.Mutex
	subs  map[chan string]struct{}
}

// New returns an empty Viewer. A nil logger means slog.Default().
func New(logger *slog.Logger) *Viewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Viewer{
		logger: logger,
		emojis: map[string]string{},
		subs:   make(map[chan string]struct{}),
	}
}

// Receive decodes one inbound frame and appends it. A malformed frame is
// logged and returned as an error; the list is left unchanged.
func (v *Viewer) Receive(raw []byte) error {
	ev, err := chat.Decode(raw)
	if err != nil {
		telemetry.Inc(telemetry.MalformedMessages)
		v.logger.Warn("viewer: error parsing message", slog.Any("err", err))
		return err
	}
	v.mu.Lock()
	v.events = append(v.events, ev)
	n := len(v.events)
	v.mu.Unlock()

	telemetry.SetGauge(telemetry.ViewerEvents, float64(n))
	v.publish()
	return nil
}

// Load replaces the list with history, oldest first.
func (v *Viewer) Load(history []chat.Event) {
	v.mu.Lock()
	v.events = append([]chat.Event(nil), history...)
	n := len(v.events)
	v.mu.Unlock()

	telemetry.SetGauge(telemetry.ViewerEvents, float64(n))
	v.publish()
}

// SetEmojis installs the emoji map used for later renders.
func (v *Viewer) SetEmojis(m map[string]string) {
	v.mu.Lock()
	v.emojis = maps.Clone(m)
	if v.emojis == nil {
		v.emojis = map[string]string{}
	}
	v.mu.Unlock()
	v.publish()
}

// Events returns a copy of the current list.
func (v *Viewer) Events() []chat.Event {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]chat.Event(nil), v.events...)
}

// Emojis returns a copy of the current emoji map.
func (v *Viewer) Emojis() map[string]string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return maps.Clone(v.emojis)
}

// Render returns the list fragment for the current state.
func (v *Viewer) Render() (string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return render.ListString(v.events, v.emojis)
}

// Subscribe returns a channel receiving the re-rendered fragment after each
// change. Only the newest fragment is kept for a slow reader. The channel is
// closed when ctx is done.
func (v *Viewer) Subscribe(ctx context.Context) <-chan string {
	ch := make(chan string, 1)
	v.subMu.Lock()
	v.subs[ch] = struct{}{}
	v.subMu.Unlock()

	go func() {
		<-ctx.Done()
		v.subMu.Lock()
		delete(v.subs, ch)
		close(ch)
		v.subMu.Unlock()
	}()
	return ch
}

func (v *Viewer) publish() {
	v.subMu.Lock()
	defer v.subMu.Unlock()
	if len(v.subs) == 0 {
		return
	}
	frag, err := v.Render()
	if err != nil {
		v.logger.Error("viewer: render failed", slog.Any("err", err))
		return
	}
	for ch := range v.subs {
		select {
		case <-ch: // drop the stale fragment
		default:
		}
		ch <- frag
	}
}

// Sync reloads history and emojis from the relay API. It runs whenever the
// relay connection opens so a reconnecting viewer replays what it missed.
func (v *Viewer) Sync(ctx context.Context, api *APIClient) error {
	history, err := api.History(ctx)
	if err != nil {
		return fmt.Errorf("load chat history: %w", err)
	}
	v.Load(history)

	emojis, err := api.Emojis(ctx)
	if err != nil {
		return fmt.Errorf("load emojis: %w", err)
	}
	v.SetEmojis(emojis)
	return nil
}
