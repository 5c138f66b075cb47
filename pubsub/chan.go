package pubsub

import (
	"context"
	"sync"
)

// chanPubSub is a PubSub[T] implementation based on go chan.
type chanPubSub[T any] struct {
	mu   sync.RWMutex
	subs map[*chanSub[T]]struct{}
}

type chanSub[T any] struct {
	ctx context.Context
	ch  chan Result[T]
}

// NewChan returns an in-process PubSub.
func NewChan[T any]() PubSub[T] {
	return &chanPubSub[T]{subs: make(map[*chanSub[T]]struct{})}
}

// Publish delivers payload to every current subscriber in order. With no
// subscribers the payload is dropped. A full subscriber blocks the publisher
// until it reads, its context ends or ctx ends.
func (ps *chanPubSub[T]) Publish(ctx context.Context, payload T) error {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for sub := range ps.subs {
		select {
		case sub.ch <- Result[T]{Ok: payload}:
		case <-sub.ctx.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (ps *chanPubSub[T]) Subscribe(ctx context.Context) <-chan Result[T] {
	sub := &chanSub[T]{ctx: ctx, ch: make(chan Result[T], bufSize)}
	ps.mu.Lock()
	ps.subs[sub] = struct{}{}
	ps.mu.Unlock()

	go func() {
		<-ctx.Done()
		ps.mu.Lock()
		delete(ps.subs, sub)
		ps.mu.Unlock()
		close(sub.ch)
	}()
	return sub.ch
}
