package commentary

import (
	"log/slog"
	"strings"
	"sync"
)

// maxCacheEntries bounds the in-memory narration cache; inserts beyond
// the cap are skipped rather than evicting.
const maxCacheEntries = 100

// CacheStore persists narration cache entries across restarts.
// Implementations must tolerate concurrent calls.
type CacheStore interface {
	GetCommentary(key string) (string, bool, error)
	PutCommentary(key, text string) error
}

// cache maps deterministic request keys to previously generated
// narrations so identical events cost one network call.
type cache struct {
	mu      sync.Mutex
	entries map[string]string
	store   CacheStore // optional
}

func newCache(store CacheStore) *cache {
	return &cache{
		entries: make(map[string]string),
		store:   store,
	}
}

// cacheKey builds the deterministic lookup key from an action and its
// free-form descriptors.
func cacheKey(action Action, params []string) string {
	parts := append([]string{string(action)}, params...)
	return strings.Join(parts, "_")
}

func (c *cache) get(key string) (string, bool) {
	c.mu.Lock()
	if text, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return text, true
	}
	c.mu.Unlock()

	if c.store != nil {
		if text, ok, err := c.store.GetCommentary(key); err == nil && ok {
			c.put(key, text)
			return text, true
		}
	}
	return "", false
}

func (c *cache) put(key, text string) {
	c.mu.Lock()
	if len(c.entries) < maxCacheEntries {
		c.entries[key] = text
	}
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.PutCommentary(key, text); err != nil {
			slog.Warn("commentary cache write failed", "error", err)
		}
	}
}

func (c *cache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *cache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]string)
}
