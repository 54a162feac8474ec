// Package idempotency drops repeated webhook deliveries that carry the same
// Idempotency-Key header. Deliveries without a key are always processed.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "pipeline-webhook:idem:"

type Guard interface {
	// Claim returns true the first time key is seen within the TTL.
	Claim(ctx context.Context, key string) (bool, error)
	// Release forgets a claimed key so a failed delivery can be retried.
	Release(ctx context.Context, key string) error
}

type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl}
}

// NewRedisGuardFromURL parses a redis:// URL and pings the server.
func NewRedisGuardFromURL(ctx context.Context, url string, ttl time.Duration) (*RedisGuard, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisGuard(client, ttl), nil
}

func (g *RedisGuard) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, keyPrefix+key, time.Now().Unix(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim idempotency key: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, keyPrefix+key).Err()
}

func (g *RedisGuard) Close() error {
	return g.client.Close()
}
