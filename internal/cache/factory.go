package cache

import (
	"path/filepath"
	"strings"

	"github.com/matthewgall/pricer/internal/config"
)

const sqliteFileName = "lookup_cache.db"

func NewFromConfig(cfg config.CacheConfig) (Cache, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "", "memory":
		return NewMemory(cfg.MaxEntries, cfg.TTL), nil
	case "sqlite":
		dir := strings.TrimSpace(cfg.Directory)
		if dir == "" {
			dir = "data"
		}
		return NewWithPath(filepath.Join(dir, sqliteFileName))
	case "redis":
		return NewRedis(RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			UseTLS:   cfg.Redis.UseTLS,
			Prefix:   cfg.Redis.Prefix,
		})
	default:
		return nil, ErrUnknownProvider
	}
}
