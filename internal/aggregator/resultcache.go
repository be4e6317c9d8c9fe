package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/matthewgall/pricer/internal/cache"
	"github.com/matthewgall/pricer/internal/models"
)

const DefaultTTL = time.Hour

type Lookuper interface {
	Lookup(ctx context.Context, query, platform string) models.AggregateResult
}

type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// ResultCache memoizes lookups in a cache backend. Backend failures are
// logged and treated as misses.
type ResultCache struct {
	store  cache.Cache
	lookup Lookuper
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

func NewResultCache(store cache.Cache, lookup Lookuper, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{store: store, lookup: lookup, ttl: ttl}
}

func CacheKey(query, platform string) string {
	if platform == "" {
		platform = "all"
	}
	return fmt.Sprintf("price_%s_%s", strings.ToLower(query), platform)
}

func (c *ResultCache) GetOrCompute(ctx context.Context, query, platform string) models.AggregateResult {
	key := CacheKey(query, platform)

	if result, ok := c.get(ctx, key); ok {
		c.hits.Add(1)
		result.Cached = true
		return result
	}
	c.misses.Add(1)

	result := c.lookup.Lookup(ctx, query, platform)
	result.Cached = false
	if err := c.store.Set(ctx, key, result, c.ttl); err != nil {
		slog.WarnContext(ctx, "storing lookup result", "key", key, "error", err)
	}
	return result
}

func (c *ResultCache) get(ctx context.Context, key string) (models.AggregateResult, bool) {
	entry, err := c.store.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "reading cached lookup", "key", key, "error", err)
		return models.AggregateResult{}, false
	}
	if entry == nil {
		return models.AggregateResult{}, false
	}
	var result models.AggregateResult
	if err := json.Unmarshal([]byte(entry.PayloadJSON), &result); err != nil {
		slog.WarnContext(ctx, "decoding cached lookup", "key", key, "error", err)
		return models.AggregateResult{}, false
	}
	return result, true
}

// Stats returns hit and miss counters since start plus the number of keys
// the backend currently holds.
func (c *ResultCache) Stats(ctx context.Context) (CacheStats, int, error) {
	stats := CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
	keys, err := c.store.Count(ctx)
	if err != nil {
		return stats, 0, fmt.Errorf("counting cache keys: %w", err)
	}
	return stats, keys, nil
}
