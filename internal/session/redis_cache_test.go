package session

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedisCache_UnreachableServerReturnsErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })
	c := NewRedisCache(client)
	ctx := context.Background()

	if _, err := c.Get(ctx, "t1"); err == nil {
		t.Error("Get: expected error")
	}
	if _, err := c.IsDenied(ctx, "t1"); err == nil {
		t.Error("IsDenied: expected error")
	}
	if err := c.Set(ctx, "t1", &Entry{}, 0); err != nil {
		t.Errorf("Set with zero ttl should be a no-op, got %v", err)
	}
}
