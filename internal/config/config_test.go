package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "HOST", "REDIS_URL"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, ":3000", cfg.Server.Address)
	require.Equal(t, "memory", cfg.Cache.Provider)
	require.Equal(t, time.Hour, cfg.Cache.TTL)
	require.Equal(t, 10*time.Second, cfg.Sources.Timeout)
	require.Equal(t, "local", cfg.Capture.Method)
	require.False(t, cfg.Capture.Enabled)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
server:
  address: "127.0.0.1:9000"
sources:
  timeout: 5s
  pricecharting:
    base_url: "http://localhost:8081"
cache:
  provider: sqlite
  ttl: 30m
  directory: ` + dir + `
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	t.Setenv("PRICER_CACHE_TTL", "2h")
	t.Setenv("PRICER_LOG_FORMAT", "json")
	t.Setenv("PRICER_APP_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.Server.Address)
	require.Equal(t, 5*time.Second, cfg.Sources.Timeout)
	require.Equal(t, "http://localhost:8081", cfg.Sources.PriceCharting.BaseURL)
	require.Equal(t, "https://www.ebay.com", cfg.Sources.Ebay.BaseURL)
	require.Equal(t, "sqlite", cfg.Cache.Provider)
	require.Equal(t, 2*time.Hour, cfg.Cache.TTL)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.AllowedOrigins)
}

func TestLoadPortEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8080", cfg.Server.Address)
}

func TestLoadRedisURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRICER_CACHE_PROVIDER", "redis")
	t.Setenv("REDIS_URL", "rediss://:secret@cache.internal:6380/2")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "cache.internal:6380", cfg.Cache.Redis.Addr)
	require.Equal(t, "secret", cfg.Cache.Redis.Password)
	require.Equal(t, 2, cfg.Cache.Redis.DB)
	require.True(t, cfg.Cache.Redis.UseTLS)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad duration":   {"PRICER_SOURCES_TIMEOUT": "soon"},
		"bad provider":   {"PRICER_CACHE_PROVIDER": "memcached"},
		"redis no addr":  {"PRICER_CACHE_PROVIDER": "redis"},
		"bad base url":   {"PRICER_SOURCES_EBAY_URL": "ftp://ebay.example"},
		"bad log format": {"PRICER_LOG_FORMAT": "xml"},
		"s3 no bucket":   {"PRICER_CAPTURE_ENABLED": "true", "PRICER_CAPTURE_METHOD": "s3"},
		"bad redis url":  {"REDIS_URL": "redis:///0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range env {
				t.Setenv(key, value)
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.Error(t, err)
		})
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	address := "127.0.0.1:4000"
	provider := "SQLite"
	ttl := 5 * time.Minute
	require.NoError(t, cfg.ApplyOverrides(Overrides{
		ServerAddress: &address,
		CacheProvider: &provider,
		CacheTTL:      &ttl,
	}))
	require.Equal(t, address, cfg.Server.Address)
	require.Equal(t, "sqlite", cfg.Cache.Provider)
	require.Equal(t, ttl, cfg.Cache.TTL)

	empty := ""
	require.Error(t, cfg.ApplyOverrides(Overrides{ServerAddress: &empty}))
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PRICER_TEST_DOTENV=loaded\n"), 0o600))
	t.Setenv("PRICER_TEST_DOTENV", "")
	os.Unsetenv("PRICER_TEST_DOTENV")
	require.NoError(t, LoadDotEnv(path))
	require.Equal(t, "loaded", os.Getenv("PRICER_TEST_DOTENV"))
}
