package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// MockYouTubeServer creates a test server that mocks YouTube Data API and
// Google OAuth token responses. Handlers are matched on the path suffix.
type MockYouTubeServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc

	mu       sync.Mutex
	requests []*http.Request
}

// NewMockYouTubeServer creates a new mock YouTube API server
func NewMockYouTubeServer(t *testing.T) *MockYouTubeServer {
	t.Helper()
	m := &MockYouTubeServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requests = append(m.requests, r.Clone(r.Context()))
		m.mu.Unlock()
		for suffix, handler := range m.Handlers {
			if strings.HasSuffix(r.URL.Path, suffix) {
				handler(w, r)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// Requests returns the requests received so far.
func (m *MockYouTubeServer) Requests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*http.Request(nil), m.requests...)
}

// MockVideo describes one videos.list item.
type MockVideo struct {
	ID             string
	Title          string
	Channel        string
	LiveContent    string // live, upcoming or none
	LiveChatID     string
	ActualStart    string
	ConcurrentView string
}

// liveDetails leaves out empty fields; the client decodes concurrentViewers as
// a quoted integer and rejects "".
func (v MockVideo) liveDetails() map[string]string {
	details := map[string]string{}
	for key, val := range map[string]string{
		"activeLiveChatId":  v.LiveChatID,
		"actualStartTime":   v.ActualStart,
		"concurrentViewers": v.ConcurrentView,
	} {
		if val != "" {
			details[key] = val
		}
	}
	return details
}

// MockVideosResponse adds a handler for the videos.list endpoint
func (m *MockYouTubeServer) MockVideosResponse(videos ...MockVideo) {
	m.Handlers["/videos"] = func(w http.ResponseWriter, r *http.Request) {
		items := []map[string]interface{}{}
		for _, v := range videos {
			if id := r.URL.Query().Get("id"); id != "" && id != v.ID {
				continue
			}
			items = append(items, map[string]interface{}{
				"id": v.ID,
				"snippet": map[string]string{
					"title":                v.Title,
					"channelTitle":         v.Channel,
					"liveBroadcastContent": v.LiveContent,
				},
				"liveStreamingDetails": v.liveDetails(),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"items": items}) //nolint:errcheck // test mock response
	}
}

// MockOAuthTokenResponse adds a handler for OAuth token endpoint
func (m *MockYouTubeServer) MockOAuthTokenResponse(accessToken string, expiresIn int) {
	m.Handlers["/token"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"access_token": accessToken,
			"expires_in":   expiresIn,
			"token_type":   "Bearer",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}
