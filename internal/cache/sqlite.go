package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/matthewgall/pricer/internal/db"
	"github.com/matthewgall/pricer/internal/models"
)

type sqliteCache struct {
	db    *sql.DB
	owned *db.DB
	now   func() time.Time
}

// New wraps an already migrated connection.
func New(conn *sql.DB) Cache {
	return &sqliteCache{db: conn, now: time.Now}
}

// NewWithPath opens (and migrates) a dedicated cache database at path.
func NewWithPath(path string) (Cache, error) {
	if path == "" {
		return nil, fmt.Errorf("cache path required")
	}

	database, err := db.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	c := New(database.Conn()).(*sqliteCache)
	c.owned = database
	return c, nil
}

func (c *sqliteCache) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	var fetchedAt, expiresAt int64

	err := c.db.QueryRowContext(ctx, `
		SELECT cache_key, payload_json, fetched_at, expires_at
		FROM lookup_cache
		WHERE cache_key = ? AND expires_at > ?
	`, key, c.now().UnixMilli()).Scan(&entry.Key, &entry.PayloadJSON, &fetchedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying cache: %w", err)
	}

	entry.FetchedAt = time.UnixMilli(fetchedAt).UTC()
	entry.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	return &entry, nil
}

func (c *sqliteCache) Set(ctx context.Context, key string, payload interface{}, ttl time.Duration) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	now := c.now()
	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO lookup_cache (cache_key, payload_json, fetched_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, key, string(payloadJSON), now.UnixMilli(), now.Add(ttl).UnixMilli())
	if err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}

	return nil
}

func (c *sqliteCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM lookup_cache WHERE cache_key = ?", key)
	return err
}

func (c *sqliteCache) ClearExpired(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM lookup_cache WHERE expires_at <= ?", c.now().UnixMilli())
	return err
}

func (c *sqliteCache) ClearAll(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM lookup_cache")
	return err
}

func (c *sqliteCache) Count(ctx context.Context) (int, error) {
	var count int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM lookup_cache WHERE expires_at > ?", c.now().UnixMilli(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return count, nil
}

func (c *sqliteCache) Close() error {
	if c.owned != nil {
		return c.owned.Close()
	}
	return nil
}
