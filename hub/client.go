package hub

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/onnwee/ytchat-relay/telemetry"
)

const (
	writeWait   = 1 * time.Second
	pongWait    = 30 * time.Second
	pingPeriod  = (pongWait * 9) / 10
	maxMsgSize  = 1024 * 4
	sendBufSize = 8
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Client is one WebSocket connection.
type Client struct {
	id      uint64
	remote  string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
}

func (c *Client) enableTCPNoDelay() {
	if tcpConn, ok := c.conn.UnderlyingConn().(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}
}

func (c *Client) readLoop(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		case <-ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("hub: ws read error", slog.Uint64("client", c.id), slog.Any("err", err))
			}
			return
		}
		if !c.limiter.Allow() {
			telemetry.Inc(telemetry.HubRateLimited)
			continue
		}
		msg = bytes.TrimSpace(bytes.ReplaceAll(msg, newline, space))
		c.hub.ingest(ctx, c, msg)
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Handler upgrades requests to WebSocket clients of h. ctx bounds the client
// goroutines; cancel it on shutdown.
func (h *Hub) Handler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-h.done:
			http.Error(w, "relay unavailable", http.StatusServiceUnavailable)
			return
		default:
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("hub: upgrade error", slog.Any("err", err))
			return
		}
		c := &Client{
			id:      h.nextID.Add(1),
			remote:  r.RemoteAddr,
			hub:     h,
			conn:    conn,
			send:    make(chan []byte, sendBufSize),
			limiter: rate.NewLimiter(h.ingestRate, h.ingestBurst),
		}
		c.enableTCPNoDelay()
		select {
		case h.register <- c:
		case <-h.done:
			conn.Close()
			return
		case <-ctx.Done():
			conn.Close()
			return
		}
		go c.writeLoop()
		go c.readLoop(ctx)
	})
}
