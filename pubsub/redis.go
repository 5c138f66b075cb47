package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisPubSub is a PubSub[T] implementation based on redis pub/sub and json
// encoding.
type redisPubSub[T any] struct {
	name string
	rdb  *redis.Client
}

// NewRedis returns a PubSub publishing JSON payloads on the redis channel name.
func NewRedis[T any](name string, rdb *redis.Client) PubSub[T] {
	return &redisPubSub[T]{name: name, rdb: rdb}
}

// Dial parses a redis:// URL and verifies the server answers.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (ps *redisPubSub[T]) Publish(ctx context.Context, payload T) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}
	return ps.rdb.Publish(ctx, ps.name, encoded).Err()
}

func (ps *redisPubSub[T]) Subscribe(ctx context.Context) <-chan Result[T] {
	sub := ps.rdb.Subscribe(ctx, ps.name)
	out := make(chan Result[T], bufSize)

	// Receive blocks until the subscription is confirmed, so publishes made
	// after Subscribe returns are not missed.
	if _, err := sub.Receive(ctx); err != nil {
		go func() {
			defer close(out)
			defer sub.Close()
			select {
			case out <- Result[T]{Err: fmt.Errorf("redis subscribe: %w", err)}:
			case <-ctx.Done():
			}
		}()
		return out
	}

	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var payload T
				err := json.Unmarshal([]byte(msg.Payload), &payload)
				select {
				case out <- Result[T]{Ok: payload, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
