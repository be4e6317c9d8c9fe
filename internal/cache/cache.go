package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/matthewgall/pricer/internal/models"
)

var ErrUnknownProvider = errors.New("unknown cache provider")

// Cache stores JSON payloads under string keys with a per-entry TTL.
// Get returns nil, nil for missing or expired keys.
type Cache interface {
	Get(ctx context.Context, key string) (*models.CacheEntry, error)
	Set(ctx context.Context, key string, payload interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	ClearExpired(ctx context.Context) error
	ClearAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// RunJanitor clears expired entries every interval until ctx is done.
func RunJanitor(ctx context.Context, c Cache, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ClearExpired(ctx); err != nil {
				slog.WarnContext(ctx, "clearing expired cache entries", "error", err)
			}
		}
	}
}
