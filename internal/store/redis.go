// ABOUTME: Redis-backed KV for sharing a session between hosts
// ABOUTME: Every write publishes the key so watchers can re-read it

package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisKV implements KV on Redis. Keys are stored as "<prefix><key>" and
// change notifications go to the "<prefix>changes" channel.
type RedisKV struct {
	client *redis.Client
	prefix string
}

// NewRedisKV creates a Redis store. Prefix may be empty.
func NewRedisKV(client *redis.Client, prefix string) *RedisKV {
	if prefix == "" {
		prefix = "ridectl:"
	}
	return &RedisKV{client: client, prefix: prefix}
}

func (r *RedisKV) key(key string) string {
	return r.prefix + key
}

func (r *RedisKV) channel() string {
	return r.prefix + "changes"
}

// Get returns the value for key
func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return val, err
}

// Set stores value under key and publishes the change
func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.key(key), value, 0)
		p.Publish(ctx, r.channel(), key)
		return nil
	})
	return err
}

// Delete removes key and publishes the change
func (r *RedisKV) Delete(ctx context.Context, key string) error {
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.key(key))
		p.Publish(ctx, r.channel(), key)
		return nil
	})
	return err
}

// Watch subscribes to the change channel
func (r *RedisKV) Watch(ctx context.Context) (<-chan Change, error) {
	sub := r.client.Subscribe(ctx, r.channel())
	// Wait for confirmation so no publish after Watch returns is missed
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}

	ch := make(chan Change, 16)
	msgs := sub.Channel()
	go func() {
		defer close(ch)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case ch <- Change{Key: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
