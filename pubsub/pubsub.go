// Package pubsub fans chat events out between hub instances. The channel
// implementation serves a single relay process; the Redis implementation lets
// several relays share one chat stream.
package pubsub

import "context"

// PubSub[T] is the pub/sub interface.
type PubSub[T any] interface {
	Publish(ctx context.Context, payload T) error
	// Subscribe returns a channel of payloads published after the call. The
	// channel is closed once ctx is done.
	Subscribe(ctx context.Context) <-chan Result[T]
}

// Result[T] is the result of a PubSub[T] subscription.
type Result[T any] struct {
	Ok  T
	Err error
}

const bufSize = 64
