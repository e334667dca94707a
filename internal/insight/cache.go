package insight

import (
	"context"
	"sync"
	"time"

	"github.com/mol-insights/feestrat-cli/internal/store"
)

// Cache stores generated insight text under deterministic keys. A miss is
// reported as an empty string, not an error.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, content string, ttl time.Duration) error
}

type memoryEntry struct {
	content   string
	expiresAt time.Time
}

// MemoryCache is an in-process Cache with per-entry expiry.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", nil
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return "", nil
	}
	return e.content, nil
}

func (c *MemoryCache) Set(_ context.Context, key, content string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{content: content, expiresAt: time.Now().Add(ttl)}
	return nil
}

// StoreCache adapts a store.Store's insight-cache tables to the Cache
// interface, so cached narratives survive process restarts.
type StoreCache struct {
	store store.Store
}

// NewStoreCache wraps the given store as a Cache.
func NewStoreCache(st store.Store) *StoreCache {
	return &StoreCache{store: st}
}

func (c *StoreCache) Get(ctx context.Context, key string) (string, error) {
	return c.store.GetCachedInsight(ctx, key)
}

func (c *StoreCache) Set(ctx context.Context, key, content string, ttl time.Duration) error {
	return c.store.SetCachedInsight(ctx, key, content, ttl)
}
