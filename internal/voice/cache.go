package voice

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

// maxNameStem caps the readable part of cached audio filenames.
const maxNameStem = 20

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Index persists the text-to-file mapping so cached audio survives a
// restart. Implementations must tolerate concurrent calls.
type Index interface {
	GetVoice(key string) (string, bool, error)
	PutVoice(key, filename string) error
	ClearVoice() error
}

// CacheStats summarizes the on-disk audio cache.
type CacheStats struct {
	Files      int
	TotalBytes int64
}

// Cache stores rendered audio files under a directory, keyed by a hash
// of the narration text. An optional Index makes entries durable.
type Cache struct {
	dir   string
	index Index // optional

	mu      sync.Mutex
	entries map[string]string // key → absolute file path
}

// NewCache creates the cache directory if needed.
func NewCache(dir string, index Index) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create voice cache dir: %w", err)
	}
	return &Cache{
		dir:     dir,
		index:   index,
		entries: make(map[string]string),
	}, nil
}

func cacheKeyFor(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached audio path for text, checking the in-memory
// map first and the durable index second. Entries whose file vanished
// are treated as misses.
func (c *Cache) Lookup(text string) (string, bool) {
	key := cacheKeyFor(text)

	c.mu.Lock()
	path, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		if fileExists(path) {
			return path, true
		}
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
	}

	if c.index != nil {
		name, ok, err := c.index.GetVoice(key)
		if err == nil && ok {
			path := filepath.Join(c.dir, name)
			if fileExists(path) {
				c.mu.Lock()
				c.entries[key] = path
				c.mu.Unlock()
				return path, true
			}
		}
	}
	return "", false
}

// Store writes audio bytes for text and records the mapping. The
// filename keeps a sanitized slice of the text for debuggability.
func (c *Cache) Store(text string, data []byte, ext string) (string, error) {
	name := fileNameFor(text, ext)
	path := filepath.Join(c.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write audio file: %w", err)
	}

	key := cacheKeyFor(text)
	c.mu.Lock()
	c.entries[key] = path
	c.mu.Unlock()

	if c.index != nil {
		if err := c.index.PutVoice(key, name); err != nil {
			slog.Warn("voice index write failed", "error", err)
		}
	}
	return path, nil
}

func fileNameFor(text, ext string) string {
	stem := unsafeNameChars.ReplaceAllString(text, "_")
	if len(stem) > maxNameStem {
		stem = stem[:maxNameStem]
	}
	return fmt.Sprintf("%s_%d.%s", stem, time.Now().UnixMilli(), ext)
}

// Clear deletes every cached audio file and resets the index.
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.entries = make(map[string]string)
	c.mu.Unlock()

	var firstErr error
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if rmErr := os.Remove(path); rmErr != nil && firstErr == nil {
			firstErr = rmErr
		}
		return nil
	})
	if err != nil && firstErr == nil {
		firstErr = err
	}

	if c.index != nil {
		if err := c.index.ClearVoice(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Stats walks the cache directory and reports file count and size.
func (c *Cache) Stats() CacheStats {
	var stats CacheStats
	filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		stats.Files++
		if info, err := d.Info(); err == nil {
			stats.TotalBytes += info.Size()
		}
		return nil
	})
	return stats
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
