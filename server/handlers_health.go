package server

import (
	"net/http"
)

// HandleHealthz responds to liveness probes.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz reports ready once the history store answers.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"store", func() error { return h.deps.Store.Ping(r.Context()) }},
	}
	for _, check := range checks {
		if err := check.fn(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
				"error":        err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// HandleStatus summarizes the relay: connected clients, stored events and,
// when configured, the live stream being relayed.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{}
	if h.deps.Hub != nil {
		resp["clients"] = h.deps.Hub.ClientCount()
		resp["node"] = h.deps.Hub.Node()
	}
	n, err := h.deps.Store.Count(r.Context())
	if err != nil {
		resp["storeError"] = err.Error()
	} else {
		resp["stored"] = n
	}
	if h.deps.VideoID != "" {
		resp["videoId"] = h.deps.VideoID
	}
	st, err := h.stream(r.Context())
	switch {
	case err != nil:
		resp["streamError"] = err.Error()
	case st != nil:
		resp["stream"] = st
	}
	writeJSON(w, http.StatusOK, resp)
}
