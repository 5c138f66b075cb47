package store

import (
	"context"
	"sync"

	"github.com/onnwee/ytchat-relay/chat"
)

// Memory is a bounded ring of events; once full the oldest is dropped.
type Memory struct {
	mu    sync.RWMutex
	buf   []chat.Event
	start int
	n     int
}

// NewMemory returns a store holding at most limit events.
func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Memory{buf: make([]chat.Event, limit)}
}

func (m *Memory) Append(_ context.Context, ev chat.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.n < len(m.buf) {
		m.buf[(m.start+m.n)%len(m.buf)] = ev
		m.n++
		return nil
	}
	m.buf[m.start] = ev
	m.start = (m.start + 1) % len(m.buf)
	return nil
}

func (m *Memory) List(_ context.Context, limit int) ([]chat.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > m.n {
		limit = m.n
	}
	out := make([]chat.Event, 0, limit)
	for i := m.n - limit; i < m.n; i++ {
		out = append(out, m.buf[(m.start+i)%len(m.buf)])
	}
	return out, nil
}

func (m *Memory) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.n, nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.buf)
	m.start, m.n = 0, 0
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }
