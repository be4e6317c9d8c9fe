package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/matthewgall/pricer/internal/models"
)

type memoryCache struct {
	lru *expirable.LRU[string, models.CacheEntry]
	now func() time.Time
}

// NewMemory returns a process-local LRU cache holding at most maxEntries
// entries (maxEntries <= 0 means unbounded). Entries live no longer than ttl
// regardless of the ttl passed to Set; ttl <= 0 disables that ceiling.
func NewMemory(maxEntries int, ttl time.Duration) Cache {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &memoryCache{
		lru: expirable.NewLRU[string, models.CacheEntry](maxEntries, nil, ttl),
		now: time.Now,
	}
}

func (c *memoryCache) Get(_ context.Context, key string) (*models.CacheEntry, error) {
	entry, ok := c.lru.Get(key)
	if !ok {
		return nil, nil
	}
	if entry.Expired(c.now()) {
		c.lru.Remove(key)
		return nil, nil
	}
	return &entry, nil
}

func (c *memoryCache) Set(_ context.Context, key string, payload interface{}, ttl time.Duration) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	now := c.now()
	c.lru.Add(key, models.CacheEntry{
		Key:         key,
		PayloadJSON: string(payloadJSON),
		FetchedAt:   now,
		ExpiresAt:   now.Add(ttl),
	})
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

func (c *memoryCache) ClearExpired(_ context.Context) error {
	now := c.now()
	for _, key := range c.lru.Keys() {
		if entry, ok := c.lru.Peek(key); ok && entry.Expired(now) {
			c.lru.Remove(key)
		}
	}
	return nil
}

func (c *memoryCache) ClearAll(_ context.Context) error {
	c.lru.Purge()
	return nil
}

func (c *memoryCache) Count(_ context.Context) (int, error) {
	now := c.now()
	count := 0
	for _, entry := range c.lru.Values() {
		if !entry.Expired(now) {
			count++
		}
	}
	return count, nil
}

func (c *memoryCache) Close() error {
	return nil
}
