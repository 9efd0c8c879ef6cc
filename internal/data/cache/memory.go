package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
)

// DefaultMemoryEntries bounds the in-process cache when no size is given.
const DefaultMemoryEntries = 4096

type memoryCache struct {
	lru *lru.Cache[string, []byte]
	log *logger.Logger
}

// NewMemoryCache returns a bounded in-process LRU cache.
func NewMemoryCache(maxEntries int, log *logger.Logger) (Cache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryEntries
	}
	l, err := lru.New[string, []byte](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("init lru: %w", err)
	}
	return &memoryCache{lru: l, log: log.With("cache", "MemoryCache")}, nil
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	if evicted := c.lru.Add(key, stored); evicted {
		c.log.Debug("lru eviction", "key", key)
	}
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.lru.Remove(k)
	}
	return nil
}

func (c *memoryCache) Close() error {
	c.lru.Purge()
	return nil
}
