package viewer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/onnwee/ytchat-relay/render"
)

// NewHandler serves the viewer page at / and the SSE fragment stream at /stream.
func NewHandler(v *Viewer) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		// render from copies so a slow client never holds up Receive
		events, emojis := v.Events(), v.Emojis()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := render.Page(w, events, emojis, render.PageOptions{StreamURL: "/stream"}); err != nil {
			v.logger.Error("viewer: page render failed", slog.Any("err", err))
		}
	})
	mux.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
		streamFragments(v, w, r)
	})
	return mux
}

func streamFragments(v *Viewer, w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	updates := v.Subscribe(ctx)

	send := func(frag string) bool {
		data, err := json.Marshal(frag)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	current, err := v.Render()
	if err != nil || !send(current) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case frag, ok := <-updates:
			if !ok || !send(frag) {
				return
			}
		}
	}
}
