package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matthewgall/pricer/internal/models"
)

const defaultRedisPrefix = "pricer:lookup"

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	UseTLS   bool
	Prefix   string
}

type redisCache struct {
	client    *redis.Client
	keyPrefix string
}

type redisCacheEntry struct {
	CacheKey    string    `json:"cache_key"`
	PayloadJSON string    `json:"payload_json"`
	FetchedAt   time.Time `json:"fetched_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// NewRedis connects and pings. Expiry is left to redis key TTLs.
func NewRedis(cfg RedisConfig) (Cache, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	options := &redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.UseTLS {
		options.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(options)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return newRedisCache(client, cfg.Prefix), nil
}

func newRedisCache(client *redis.Client, prefix string) *redisCache {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &redisCache{client: client, keyPrefix: prefix}
}

func (c *redisCache) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	value, err := c.client.Get(ctx, c.buildKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying redis cache: %w", err)
	}

	var entry redisCacheEntry
	if err := json.Unmarshal([]byte(value), &entry); err != nil {
		return nil, fmt.Errorf("decoding redis cache: %w", err)
	}

	return &models.CacheEntry{
		Key:         entry.CacheKey,
		PayloadJSON: entry.PayloadJSON,
		FetchedAt:   entry.FetchedAt,
		ExpiresAt:   entry.ExpiresAt,
	}, nil
}

func (c *redisCache) Set(ctx context.Context, key string, payload interface{}, ttl time.Duration) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	now := time.Now().UTC()
	encoded, err := json.Marshal(redisCacheEntry{
		CacheKey:    key,
		PayloadJSON: string(payloadJSON),
		FetchedAt:   now,
		ExpiresAt:   now.Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("encoding redis cache: %w", err)
	}

	if err := c.client.Set(ctx, c.buildKey(key), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("storing redis cache: %w", err)
	}

	return nil
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.buildKey(key)).Err(); err != nil {
		return fmt.Errorf("deleting redis cache: %w", err)
	}
	return nil
}

func (c *redisCache) ClearExpired(ctx context.Context) error {
	return nil
}

func (c *redisCache) ClearAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.keyPrefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("clearing redis cache: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning redis keys: %w", err)
	}
	return nil
}

func (c *redisCache) Count(ctx context.Context) (int, error) {
	count := 0
	iter := c.client.Scan(ctx, 0, c.keyPrefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scanning redis keys: %w", err)
	}
	return count, nil
}

func (c *redisCache) Close() error {
	return c.client.Close()
}

func (c *redisCache) buildKey(key string) string {
	return fmt.Sprintf("%s:%s", c.keyPrefix, key)
}
