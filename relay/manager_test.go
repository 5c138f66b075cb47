package relay

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRelay is a gorilla WebSocket server recording what it receives.
type testRelay struct {
	srv      *httptest.Server
	accepted atomic.Int32
	mu       sync.Mutex
	conns    []*websocket.Conn
	received chan string
}

func newTestRelay(t *testing.T) *testRelay {
	t.Helper()
	r := &testRelay{received: make(chan string, 16)}
	up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	r.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		c, err := up.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		r.accepted.Add(1)
		r.mu.Lock()
		r.conns = append(r.conns, c)
		r.mu.Unlock()
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			r.received <- string(msg)
		}
	}))
	t.Cleanup(r.srv.Close)
	return r
}

func (r *testRelay) url() string { return "ws" + strings.TrimPrefix(r.srv.URL, "http") }

func (r *testRelay) kickAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conns {
		_ = c.Close()
	}
	r.conns = nil
}

func (r *testRelay) push(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conns {
		_ = c.WriteMessage(websocket.TextMessage, []byte(msg))
	}
}

// countingDialer counts dial attempts.
type countingDialer struct {
	calls atomic.Int32
	inner *websocket.Dialer
}

func (d *countingDialer) DialContext(ctx context.Context, u string, h http.Header) (*websocket.Conn, *http.Response, error) {
	d.calls.Add(1)
	return d.inner.DialContext(ctx, u, h)
}

func quiet() Option { return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))) }

func startManager(t *testing.T, m *Manager) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return")
		}
	}
}

func TestSendDroppedWhenNotOpen(t *testing.T) {
	m := New("ws://127.0.0.1:1", quiet())
	assert.Equal(t, StateClosed, m.State())
	assert.False(t, m.Send([]byte(`{"author":"a","message":"b"}`)))
}

func TestSendWhenOpen(t *testing.T) {
	relay := newTestRelay(t)
	var opened atomic.Int32
	m := New(relay.url(), quiet(), OnOpen(func() { opened.Add(1) }))
	stop := startManager(t, m)
	defer stop()

	require.Eventually(t, func() bool { return m.State() == StateOpen }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, opened.Load())
	require.True(t, m.Send([]byte("hello")))
	select {
	case got := <-relay.received:
		assert.Equal(t, "hello", got)
	case <-time.After(time.Second):
		t.Fatal("relay did not receive message")
	}
}

func TestOnMessage(t *testing.T) {
	relay := newTestRelay(t)
	got := make(chan string, 1)
	m := New(relay.url(), quiet(), OnMessage(func(b []byte) { got <- string(b) }))
	stop := startManager(t, m)
	defer stop()

	require.Eventually(t, func() bool { return m.State() == StateOpen }, time.Second, 5*time.Millisecond)
	relay.push("from server")
	select {
	case msg := <-got:
		assert.Equal(t, "from server", msg)
	case <-time.After(time.Second):
		t.Fatal("no inbound message")
	}
}

func TestReconnectAfterServerClose(t *testing.T) {
	relay := newTestRelay(t)
	d := &countingDialer{inner: websocket.DefaultDialer}
	m := New(relay.url(), quiet(), WithDialer(d), WithReconnectDelay(30*time.Millisecond))
	stop := startManager(t, m)
	defer stop()

	require.Eventually(t, func() bool { return m.State() == StateOpen }, time.Second, 5*time.Millisecond)
	relay.kickAll()
	require.Eventually(t, func() bool { return relay.accepted.Load() == 2 && m.State() == StateOpen }, 2*time.Second, 5*time.Millisecond)

	// one close event yields exactly one redial
	time.Sleep(150 * time.Millisecond)
	assert.EqualValues(t, 2, d.calls.Load())
	assert.True(t, m.Send([]byte("after reconnect")))
}

func TestReconnectAfterDialFailure(t *testing.T) {
	relay := newTestRelay(t)
	var fail atomic.Bool
	fail.Store(true)
	var calls atomic.Int32
	d := dialerFunc(func(ctx context.Context, u string, h http.Header) (*websocket.Conn, *http.Response, error) {
		calls.Add(1)
		if fail.Load() {
			return nil, nil, websocket.ErrBadHandshake
		}
		return websocket.DefaultDialer.DialContext(ctx, u, h)
	})
	m := New(relay.url(), quiet(), WithDialer(d), WithReconnectDelay(20*time.Millisecond))
	stop := startManager(t, m)
	defer stop()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.NotEqual(t, StateOpen, m.State())
	assert.False(t, m.Send([]byte("dropped")))

	fail.Store(false)
	require.Eventually(t, func() bool { return m.State() == StateOpen }, time.Second, 5*time.Millisecond)
}

func TestRunStopCancelsReconnect(t *testing.T) {
	var calls atomic.Int32
	d := dialerFunc(func(context.Context, string, http.Header) (*websocket.Conn, *http.Response, error) {
		calls.Add(1)
		return nil, nil, websocket.ErrBadHandshake
	})
	m := New("ws://unused", quiet(), WithDialer(d), WithReconnectDelay(20*time.Millisecond))
	stop := startManager(t, m)
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, time.Millisecond)
	stop()
	time.Sleep(10 * time.Millisecond)

	n := calls.Load()
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, n, calls.Load())
	assert.Equal(t, StateClosed, m.State())
}

type dialerFunc func(ctx context.Context, u string, h http.Header) (*websocket.Conn, *http.Response, error)

func (f dialerFunc) DialContext(ctx context.Context, u string, h http.Header) (*websocket.Conn, *http.Response, error) {
	return f(ctx, u, h)
}
