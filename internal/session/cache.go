package session

import (
	"context"
	"sync"
	"time"

	"farmgate/backend/internal/session/domain"
)

// Entry is a cached session together with the time it was loaded.
type Entry struct {
	Session  domain.Session `json:"session"`
	LoadedAt time.Time      `json:"loaded_at"`
}

// Cache stores resolved sessions keyed by token id and the sign-out denylist.
// Get returns (nil, nil) on a miss.
type Cache interface {
	Get(ctx context.Context, tokenID string) (*Entry, error)
	Set(ctx context.Context, tokenID string, e *Entry, ttl time.Duration) error
	Delete(ctx context.Context, tokenID string) error
	Deny(ctx context.Context, tokenID string, ttl time.Duration) error
	IsDenied(ctx context.Context, tokenID string) (bool, error)
}

type memoryItem struct {
	entry     *Entry
	expiresAt time.Time
}

// MemoryCache is a process-local Cache used when no Redis is configured and in tests.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryItem
	denied  map[string]time.Time
	now     func() time.Time
}

// NewMemoryCache returns an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryItem),
		denied:  make(map[string]time.Time),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, tokenID string) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.entries[tokenID]
	if !ok {
		return nil, nil
	}
	if !c.now().Before(it.expiresAt) {
		delete(c.entries, tokenID)
		return nil, nil
	}
	e := *it.entry
	return &e, nil
}

func (c *MemoryCache) Set(_ context.Context, tokenID string, e *Entry, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	cp := *e
	c.mu.Lock()
	c.entries[tokenID] = memoryItem{entry: &cp, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, tokenID string) error {
	c.mu.Lock()
	delete(c.entries, tokenID)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Deny(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	c.denied[tokenID] = c.now().Add(ttl)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) IsDenied(_ context.Context, tokenID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.denied[tokenID]
	if !ok {
		return false, nil
	}
	if !c.now().Before(until) {
		delete(c.denied, tokenID)
		return false, nil
	}
	return true, nil
}
