package server

import (
	"log/slog"
	"net/http"

	"github.com/onnwee/ytchat-relay/telemetry"
)

// HandleChats returns stored events oldest first. ?limit= caps the count.
func (h *Handlers) HandleChats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := parseIntQuery(r, "limit", h.deps.HistoryLimit)
	if limit <= 0 || limit > h.deps.HistoryLimit {
		limit = h.deps.HistoryLimit
	}
	events, err := h.deps.Store.List(r.Context(), limit)
	if err != nil {
		telemetry.LoggerWithCorr(r.Context()).Error("list chats", slog.Any("err", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleEmojis returns {"emojis": {token: url}}.
func (h *Handlers) HandleEmojis(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"emojis": h.deps.Emojis})
}

// HandleAdminChats clears the history on DELETE.
func (h *Handlers) HandleAdminChats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.deps.Store.Clear(r.Context()); err != nil {
		telemetry.LoggerWithCorr(r.Context()).Error("clear chats", slog.Any("err", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	telemetry.LoggerWithCorr(r.Context()).Info("chat history cleared", slog.String("component", "admin"))
	w.WriteHeader(http.StatusNoContent)
}
