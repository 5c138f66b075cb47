package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/onnwee/ytchat-relay/chat"
	"github.com/onnwee/ytchat-relay/emoji"
	"github.com/onnwee/ytchat-relay/store"
	"github.com/onnwee/ytchat-relay/youtubeapi"
)

type fakeHub struct{ clients int }

func (f fakeHub) ClientCount() int { return f.clients }
func (f fakeHub) Node() string { return "node-1" }

type fakeLookup struct {
	calls  int
	stream *youtubeapi.Stream
	err    error
}

func (f *fakeLookup) LookupStream(_ context.Context, videoID string) (*youtubeapi.Stream, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	s := *f.stream
	s.VideoID = videoID
	return &s, nil
}

// brokenStore fails every call.
type brokenStore struct{}

var errBroken = errors.New("store down")

func (brokenStore) Ping(context.Context) error { return errBroken }
func (brokenStore) Count(context.Context) (int, error) { return 0, errBroken }
func (brokenStore) List(context.Context, int) ([]chat.Event, error) { return nil, errBroken }
func (brokenStore) Clear(context.Context) error { return errBroken }
func (brokenStore) Append(context.Context, chat.Event) error { return errBroken }

func seededStore(t *testing.T, n int) *store.Memory {
	t.Helper()
	st := store.NewMemory(100)
	for i := 0; i < n; i++ {
		require.NoError(t, st.Append(context.Background(), chat.Event{
			Author:    "user",
			Message:   string(rune('a' + i)),
			Timestamp: "2024-05-01T12:00:00.000Z",
		}))
	}
	return st
}

func newTestMux(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	t.Setenv("ADMIN_TOKEN", "")
	t.Setenv("ADMIN_USERNAME", "")
	t.Setenv("ADMIN_PASSWORD", "")
	t.Setenv("RATE_LIMIT_ENABLED", "0")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewMux(ctx, deps)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestHandleChats(t *testing.T) {
	mux := newTestMux(t, Deps{Store: seededStore(t, 5), HistoryLimit: 50})

	rr := get(t, mux, "/api/chats")
	require.Equal(t, http.StatusOK, rr.Code)
	var all []chat.Event
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &all))
	require.Len(t, all, 5)
	assert.Equal(t, "a", all[0].Message)

	rr = get(t, mux, "/api/chats?limit=2")
	var last []chat.Event
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &last))
	require.Len(t, last, 2)
	assert.Equal(t, "d", last[0].Message)
	assert.Equal(t, "e", last[1].Message)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/chats", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHandleChatsStoreError(t *testing.T) {
	mux := newTestMux(t, Deps{Store: brokenStore{}})
	rr := get(t, mux, "/api/chats")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHandleEmojis(t *testing.T) {
	mux := newTestMux(t, Deps{Store: store.NewMemory(10), Emojis: emoji.Map{":wave:": "/emojis/wave.png"}})

	rr := get(t, mux, "/api/emojis")
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Emojis map[string]string `json:"emojis"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "/emojis/wave.png", body.Emojis[":wave:"])
}

func TestEmojiFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wave.png"), []byte("png-bytes"), 0o644))
	mux := newTestMux(t, Deps{Store: store.NewMemory(10), EmojiDir: dir})

	rr := get(t, mux, "/emojis/wave.png")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "png-bytes", rr.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, mux, "/emojis/missing.png").Code)
}

func TestHealthAndReadiness(t *testing.T) {
	mux := newTestMux(t, Deps{Store: store.NewMemory(10)})
	rr := get(t, mux, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
	assert.Equal(t, http.StatusOK, get(t, mux, "/readyz").Code)

	broken := newTestMux(t, Deps{Store: brokenStore{}})
	rr = get(t, broken, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "store", body["failed_check"])
	assert.Equal(t, "not_ready", body["status"])
}

func TestHandleStatus(t *testing.T) {
	lookup := &fakeLookup{stream: &youtubeapi.Stream{Title: "Launch", Live: true}}
	mux := newTestMux(t, Deps{
		Store:   seededStore(t, 3),
		Hub:     fakeHub{clients: 2},
		YouTube: lookup,
		VideoID: "vid123",
	})

	var body struct {
		Clients int               `json:"clients"`
		Node    string            `json:"node"`
		Stored  int               `json:"stored"`
		VideoID string            `json:"videoId"`
		Stream  youtubeapi.Stream `json:"stream"`
	}
	rr := get(t, mux, "/status")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Clients)
	assert.Equal(t, "node-1", body.Node)
	assert.Equal(t, 3, body.Stored)
	assert.Equal(t, "vid123", body.VideoID)
	assert.Equal(t, "Launch", body.Stream.Title)
	assert.True(t, body.Stream.Live)

	get(t, mux, "/status")
	assert.Equal(t, 1, lookup.calls, "stream lookup should be cached")
}

func TestHandleStatusStreamError(t *testing.T) {
	mux := newTestMux(t, Deps{
		Store:   store.NewMemory(10),
		YouTube: &fakeLookup{err: youtubeapi.ErrNotFound},
		VideoID: "gone",
	})
	var body map[string]any
	require.NoError(t, json.Unmarshal(get(t, mux, "/status").Body.Bytes(), &body))
	assert.Contains(t, body, "streamError")
	assert.NotContains(t, body, "stream")
}

func TestAdminClearChats(t *testing.T) {
	t.Setenv("ADMIN_TOKEN", "s3cret")
	t.Setenv("RATE_LIMIT_ENABLED", "0")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	st := seededStore(t, 4)
	mux := NewMux(ctx, Deps{Store: st})

	req := httptest.NewRequest(http.MethodDelete, "/admin/chats", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	n, _ := st.Count(context.Background())
	assert.Equal(t, 4, n)

	req = httptest.NewRequest(http.MethodDelete, "/admin/chats", nil)
	req.Header.Set("X-Admin-Token", "s3cret")
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
	n, _ = st.Count(context.Background())
	assert.Equal(t, 0, n)
}

func TestCorrelationHeader(t *testing.T) {
	mux := newTestMux(t, Deps{Store: store.NewMemory(10)})

	rr := get(t, mux, "/healthz")
	assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Correlation-ID"))
}

func TestStartShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Start(ctx, "127.0.0.1:0", http.NotFoundHandler()) }()
	cancel()
	assert.NoError(t, <-done)
}

func TestSpanNamedAfterRoute(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
	mux := newTestMux(t, Deps{Store: store.NewMemory(10), EmojiDir: dir})
	get(t, mux, "/emojis/a.png")
	get(t, mux, "/emojis/b.png")
	get(t, mux, "/nope")

	var names []string
	for _, span := range rec.Ended() {
		names = append(names, span.Name())
	}
	assert.Equal(t, []string{"GET /emojis/", "GET /emojis/", "GET unmatched"}, names)
}
