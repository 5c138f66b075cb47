// Package relay maintains the outbound WebSocket to the chat relay. A Manager
// owns one connection at a time, drops sends while it is not open and
// reconnects after a fixed delay whenever the connection closes.
package relay

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onnwee/ytchat-relay/telemetry"
)

// DefaultReconnectDelay is the wait between a close and the next dial.
const DefaultReconnectDelay = 3 * time.Second

const writeWait = time.Second

// State of the managed connection.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// Dialer opens WebSocket connections. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

type Option func(*Manager)

// WithDialer replaces the default gorilla dialer.
func WithDialer(d Dialer) Option { return func(m *Manager) { m.dialer = d } }

// WithReconnectDelay sets the fixed delay before redialing.
func WithReconnectDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.logger = l } }

// OnMessage registers the handler for inbound text frames. It runs on the
// connection's read goroutine.
func OnMessage(fn func([]byte)) Option { return func(m *Manager) { m.onMessage = fn } }

// OnOpen registers a hook run after every successful dial.
func OnOpen(fn func()) Option { return func(m *Manager) { m.onOpen = fn } }

// connection pairs a socket with its close guard so a close is handled once
// no matter how many goroutines observe the failure.
type connection struct {
	ws        *websocket.Conn
	closeOnce sync.Once
	writeMu   sync.Mutex
}

// Manager is the client side of the relay link.
type Manager struct {
	url       string
	dialer    Dialer
	delay     time.Duration
	logger    *slog.Logger
	onMessage func([]byte)
	onOpen    func()

	mu      sync.Mutex
	ctx     context.Context
	conn    *connection
	state   State
	timer   *time.Timer
	stopped bool
}

// New returns a Manager for url. Nothing is dialed until Run.
func New(url string, opts ...Option) *Manager {
	m := &Manager{
		url:   url,
		delay: DefaultReconnectDelay,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 5 * time.Second,
		},
		logger: slog.Default(),
		state:  StateClosed,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// URL returns the relay endpoint.
func (m *Manager) URL() string { return m.url }

// State reports the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Run dials the relay and keeps the link alive until ctx is done, then closes
// the connection and cancels any pending reconnect.
func (m *Manager) Run(ctx context.Context) {
	m.mu.Lock()
	m.ctx = ctx
	m.stopped = false
	m.mu.Unlock()

	m.connect()
	<-ctx.Done()

	m.mu.Lock()
	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	c := m.conn
	m.mu.Unlock()
	if c != nil {
		m.closeConn(c, nil)
	}
	m.logger.Info("relay: stopped", slog.String("url", m.url))
}

func (m *Manager) connect() {
	m.mu.Lock()
	if m.stopped || m.ctx == nil {
		m.mu.Unlock()
		return
	}
	ctx := m.ctx
	m.state = StateConnecting
	m.timer = nil
	m.mu.Unlock()

	ws, _, err := m.dialer.DialContext(ctx, m.url, nil)
	if err != nil {
		m.logger.Warn("relay: dial failed", slog.String("url", m.url), slog.Any("err", err))
		m.mu.Lock()
		m.state = StateClosed
		m.mu.Unlock()
		m.scheduleReconnect()
		return
	}

	c := &connection{ws: ws}
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		_ = ws.Close()
		return
	}
	m.conn = c
	m.state = StateOpen
	m.mu.Unlock()

	telemetry.SetGauge(telemetry.RelayConnected, 1)
	m.logger.Info("relay: connected", slog.String("url", m.url))
	if m.onOpen != nil {
		m.onOpen()
	}
	go m.readLoop(c)
}

func (m *Manager) readLoop(c *connection) {
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			m.closeConn(c, err)
			return
		}
		if m.onMessage != nil {
			m.onMessage(msg)
		}
	}
}

// closeConn tears down c once and schedules one reconnect.
func (m *Manager) closeConn(c *connection, cause error) {
	c.closeOnce.Do(func() {
		_ = c.ws.Close()
		m.mu.Lock()
		if m.conn == c {
			m.conn = nil
			m.state = StateClosed
		}
		stopped := m.stopped
		m.mu.Unlock()

		telemetry.SetGauge(telemetry.RelayConnected, 0)
		if stopped {
			return
		}
		if cause != nil && websocket.IsUnexpectedCloseError(cause, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			m.logger.Warn("relay: connection error", slog.Any("err", cause))
		}
		m.logger.Info("relay: disconnected, reconnecting", slog.Duration("delay", m.delay))
		m.scheduleReconnect()
	})
}

func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.delay, m.connect)
	telemetry.Inc(telemetry.RelayReconnects)
}

// Send writes one text frame. It returns false without writing when the
// connection is not open, and false when the write fails (which also closes
// the connection).
func (m *Manager) Send(data []byte) bool {
	m.mu.Lock()
	c := m.conn
	open := m.state == StateOpen
	m.mu.Unlock()
	if !open || c == nil {
		return false
	}

	c.writeMu.Lock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.ws.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		m.closeConn(c, err)
		return false
	}
	return true
}
