package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "farmgate:session:"
	denyKeyPrefix    = "farmgate:session-denied:"
)

// RedisCache implements Cache backed by Redis so every replica shares sessions and sign-outs.
type RedisCache struct {
	client redis.UniversalClient
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache constructs a Redis-backed session cache.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

// Get loads and decodes the cached session.
func (c *RedisCache) Get(ctx context.Context, tokenID string) (*Entry, error) {
	raw, err := c.client.Get(ctx, sessionKeyPrefix+tokenID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &e, nil
}

// Set stores the encoded session with ttl.
func (c *RedisCache) Set(ctx context.Context, tokenID string, e *Entry, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := c.client.Set(ctx, sessionKeyPrefix+tokenID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Delete removes the cached session.
func (c *RedisCache) Delete(ctx context.Context, tokenID string) error {
	if err := c.client.Del(ctx, sessionKeyPrefix+tokenID).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Deny records tokenID as signed out until ttl elapses.
func (c *RedisCache) Deny(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, denyKeyPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("deny token: %w", err)
	}
	return nil
}

// IsDenied reports whether tokenID was signed out.
func (c *RedisCache) IsDenied(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.client.Exists(ctx, denyKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("check denylist: %w", err)
	}
	return n > 0, nil
}
