package extract

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

type cacheKey struct {
	path        string
	streamIndex int
}

// Cache remembers extracted streams so switching back to a track does not extract it
// again. Concurrent requests for the same stream share one extraction. Failures are not
// cached.
type Cache struct {
	extractor Extractor
	group     singleflight.Group

	mu      sync.RWMutex
	entries map[cacheKey][]byte
}

func NewCache(extractor Extractor) *Cache {
	return &Cache{extractor: extractor, entries: make(map[cacheKey][]byte)}
}

func (c *Cache) Extract(ctx context.Context, path string, streamIndex int) ([]byte, error) {
	key := cacheKey{path: path, streamIndex: streamIndex}

	c.mu.RLock()
	data, exists := c.entries[key]
	c.mu.RUnlock()
	if exists {
		return data, nil
	}

	// The shared extraction outlives any single caller; each caller still stops waiting
	// when its own context ends.
	shared := context.WithoutCancel(ctx)
	results := c.group.DoChan(path+"\x00"+strconv.Itoa(streamIndex), func() (any, error) {
		extracted, extractErr := c.extractor.Extract(shared, path, streamIndex)
		if extractErr != nil {
			return nil, extractErr
		}

		c.mu.Lock()
		c.entries[key] = extracted
		c.mu.Unlock()

		return extracted, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-results:
		if result.Err != nil {
			return nil, result.Err
		}

		return result.Val.([]byte), nil
	}
}

// Invalidate drops every cached stream of path.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if key.path == path {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
