// Package store keeps the relay's chat history for replay to viewers that
// connect late.
package store

import (
	"context"

	"github.com/onnwee/ytchat-relay/chat"
)

// DefaultLimit bounds the in-memory history and list responses.
const DefaultLimit = 1000

// Store is an append-only, ordered chat history.
type Store interface {
	Append(ctx context.Context, ev chat.Event) error
	// List returns up to limit of the most recent events, oldest first.
	// limit <= 0 means the store's default.
	List(ctx context.Context, limit int) ([]chat.Event, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
}
