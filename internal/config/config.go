package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Sources SourcesConfig `yaml:"sources"`
	Cache   CacheConfig   `yaml:"cache"`
	Capture CaptureConfig `yaml:"capture"`
	Log     LogConfig     `yaml:"log"`
	App     AppConfig     `yaml:"app"`
}

type ServerConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type SourcesConfig struct {
	Timeout          time.Duration  `yaml:"timeout"`
	UserAgent        string         `yaml:"user_agent"`
	BypassCloudflare bool           `yaml:"bypass_cloudflare"`
	PriceCharting    EndpointConfig `yaml:"pricecharting"`
	Ebay             EndpointConfig `yaml:"ebay"`
}

type EndpointConfig struct {
	BaseURL string `yaml:"base_url"`
}

type CacheConfig struct {
	Provider    string           `yaml:"provider"`
	TTL         time.Duration    `yaml:"ttl"`
	CheckPeriod time.Duration    `yaml:"check_period"`
	MaxEntries  int              `yaml:"max_entries"`
	Directory   string           `yaml:"directory"`
	Redis       CacheRedisConfig `yaml:"redis"`
}

type CacheRedisConfig struct {
	URL      string `yaml:"url"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"` // #nosec G117 -- configuration secret field.
	DB       int    `yaml:"db"`
	UseTLS   bool   `yaml:"tls"`
	Prefix   string `yaml:"prefix"`
}

// CaptureConfig controls saving fetched source pages for use as fixtures.
type CaptureConfig struct {
	Enabled bool               `yaml:"enabled"`
	Method  string             `yaml:"method"`
	Local   CaptureLocalConfig `yaml:"local"`
	S3      CaptureS3Config    `yaml:"s3"`
}

type CaptureLocalConfig struct {
	Directory string `yaml:"directory"`
}

type CaptureS3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"` // #nosec G117 -- configuration secret field.
	Prefix          string `yaml:"prefix"`
	PathStyle       bool   `yaml:"path_style"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AppConfig struct {
	Name           string   `yaml:"name"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      ":3000",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Sources: SourcesConfig{
			Timeout:       10 * time.Second,
			PriceCharting: EndpointConfig{BaseURL: "https://www.pricecharting.com"},
			Ebay:          EndpointConfig{BaseURL: "https://www.ebay.com"},
		},
		Cache: CacheConfig{
			Provider:    "memory",
			TTL:         time.Hour,
			CheckPeriod: 10 * time.Minute,
			MaxEntries:  1000,
			Directory:   "data",
		},
		Capture: CaptureConfig{
			Method: "local",
			Local:  CaptureLocalConfig{Directory: "data/captures"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		App: AppConfig{
			Name:           "Play On Pricing",
			AllowedOrigins: []string{"*"},
		},
	}
}

// LoadDotEnv loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func Load(path string) (*Config, error) {
	cfg := Default()

	root, err := os.OpenRoot(filepath.Dir(path))
	if err == nil {
		defer root.Close()
		if _, err := root.Stat(filepath.Base(path)); err == nil {
			file, err := root.Open(filepath.Base(path))
			if err != nil {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				return nil, fmt.Errorf("reading config file: %w", err)
			}

			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("applying env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

type Overrides struct {
	ServerAddress     *string
	SourcesTimeout    *time.Duration
	SourcesUserAgent  *string
	SourcesBypassCF   *bool
	PriceChartingURL  *string
	EbayURL           *string
	CacheProvider     *string
	CacheTTL          *time.Duration
	CacheDirectory    *string
	CacheMaxEntries   *int
	CacheRedisURL     *string
	CaptureEnabled    *bool
	CaptureDirectory  *string
	LogLevel          *string
	LogFormat         *string
	AppName           *string
	AppAllowedOrigins *[]string
}

func (c *Config) ApplyOverrides(overrides Overrides) error {
	if overrides.ServerAddress != nil {
		c.Server.Address = *overrides.ServerAddress
	}
	if overrides.SourcesTimeout != nil {
		c.Sources.Timeout = *overrides.SourcesTimeout
	}
	if overrides.SourcesUserAgent != nil {
		c.Sources.UserAgent = *overrides.SourcesUserAgent
	}
	if overrides.SourcesBypassCF != nil {
		c.Sources.BypassCloudflare = *overrides.SourcesBypassCF
	}
	if overrides.PriceChartingURL != nil {
		c.Sources.PriceCharting.BaseURL = *overrides.PriceChartingURL
	}
	if overrides.EbayURL != nil {
		c.Sources.Ebay.BaseURL = *overrides.EbayURL
	}
	if overrides.CacheProvider != nil {
		c.Cache.Provider = *overrides.CacheProvider
	}
	if overrides.CacheTTL != nil {
		c.Cache.TTL = *overrides.CacheTTL
	}
	if overrides.CacheDirectory != nil {
		c.Cache.Directory = *overrides.CacheDirectory
	}
	if overrides.CacheMaxEntries != nil {
		c.Cache.MaxEntries = *overrides.CacheMaxEntries
	}
	if overrides.CacheRedisURL != nil {
		c.Cache.Redis.URL = *overrides.CacheRedisURL
		if err := applyRedisURL(&c.Cache.Redis); err != nil {
			return err
		}
	}
	if overrides.CaptureEnabled != nil {
		c.Capture.Enabled = *overrides.CaptureEnabled
	}
	if overrides.CaptureDirectory != nil {
		c.Capture.Local.Directory = *overrides.CaptureDirectory
	}
	if overrides.LogLevel != nil {
		c.Log.Level = *overrides.LogLevel
	}
	if overrides.LogFormat != nil {
		c.Log.Format = *overrides.LogFormat
	}
	if overrides.AppName != nil {
		c.App.Name = *overrides.AppName
	}
	if overrides.AppAllowedOrigins != nil {
		c.App.AllowedOrigins = *overrides.AppAllowedOrigins
	}

	return c.validate()
}

func (c *Config) applyEnv() error {
	addressSet := false
	if value, ok := lookupEnv("PRICER_SERVER_ADDRESS"); ok {
		c.Server.Address = value
		addressSet = true
	}
	serverHost, hostSet := lookupEnv("PRICER_SERVER_HOST")
	serverPort, portSet := lookupEnv("PRICER_SERVER_PORT")
	if value, ok := lookupEnv("HOST"); ok && !hostSet {
		serverHost = value
		hostSet = true
	}
	if value, ok := lookupEnv("PORT"); ok && !portSet {
		serverPort = value
		portSet = true
	}
	if !addressSet && (hostSet || portSet) {
		if serverHost == "" {
			serverHost = "0.0.0.0"
		}
		if serverPort == "" {
			serverPort = "3000"
		}
		c.Server.Address = fmt.Sprintf("%s:%s", serverHost, serverPort)
	}
	if err := envDuration("PRICER_SERVER_READ_TIMEOUT", &c.Server.ReadTimeout); err != nil {
		return err
	}
	if err := envDuration("PRICER_SERVER_WRITE_TIMEOUT", &c.Server.WriteTimeout); err != nil {
		return err
	}
	if err := envDuration("PRICER_SERVER_IDLE_TIMEOUT", &c.Server.IdleTimeout); err != nil {
		return err
	}

	if err := envDuration("PRICER_SOURCES_TIMEOUT", &c.Sources.Timeout); err != nil {
		return err
	}
	if value, ok := lookupEnv("PRICER_SOURCES_USER_AGENT"); ok {
		c.Sources.UserAgent = value
	}
	if err := envBool("PRICER_SOURCES_BYPASS_CLOUDFLARE", &c.Sources.BypassCloudflare); err != nil {
		return err
	}
	if value, ok := lookupEnv("PRICER_SOURCES_PRICECHARTING_URL"); ok {
		c.Sources.PriceCharting.BaseURL = value
	}
	if value, ok := lookupEnv("PRICER_SOURCES_EBAY_URL"); ok {
		c.Sources.Ebay.BaseURL = value
	}

	if value, ok := lookupEnv("PRICER_CACHE_PROVIDER"); ok {
		c.Cache.Provider = value
	}
	if err := envDuration("PRICER_CACHE_TTL", &c.Cache.TTL); err != nil {
		return err
	}
	if err := envDuration("PRICER_CACHE_CHECK_PERIOD", &c.Cache.CheckPeriod); err != nil {
		return err
	}
	if err := envInt("PRICER_CACHE_MAX_ENTRIES", &c.Cache.MaxEntries); err != nil {
		return err
	}
	if value, ok := lookupEnv("PRICER_CACHE_DIRECTORY"); ok {
		c.Cache.Directory = value
	}
	if value, ok := lookupEnv("PRICER_CACHE_REDIS_URL"); ok {
		c.Cache.Redis.URL = value
	} else if value, ok := lookupEnv("REDIS_URL"); ok {
		c.Cache.Redis.URL = value
	}
	if value, ok := lookupEnv("PRICER_CACHE_REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = value
	}
	if value, ok := lookupEnv("PRICER_CACHE_REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = value
	}
	if err := envInt("PRICER_CACHE_REDIS_DB", &c.Cache.Redis.DB); err != nil {
		return err
	}
	if err := envBool("PRICER_CACHE_REDIS_TLS", &c.Cache.Redis.UseTLS); err != nil {
		return err
	}
	if value, ok := lookupEnv("PRICER_CACHE_REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = value
	}
	if strings.TrimSpace(c.Cache.Redis.URL) != "" {
		if err := applyRedisURL(&c.Cache.Redis); err != nil {
			return err
		}
	}

	if err := envBool("PRICER_CAPTURE_ENABLED", &c.Capture.Enabled); err != nil {
		return err
	}
	if value, ok := lookupEnv("PRICER_CAPTURE_METHOD"); ok {
		c.Capture.Method = value
	}
	if value, ok := lookupEnv("PRICER_CAPTURE_LOCAL_DIRECTORY"); ok {
		c.Capture.Local.Directory = value
	}
	if value, ok := lookupEnv("PRICER_CAPTURE_S3_BUCKET"); ok {
		c.Capture.S3.Bucket = value
	}
	if value, ok := lookupEnv("PRICER_CAPTURE_S3_REGION"); ok {
		c.Capture.S3.Region = value
	}
	if value, ok := lookupEnv("PRICER_CAPTURE_S3_ENDPOINT"); ok {
		c.Capture.S3.Endpoint = value
	}
	if value, ok := lookupEnv("PRICER_CAPTURE_S3_ACCESS_KEY_ID"); ok {
		c.Capture.S3.AccessKeyID = value
	}
	if value, ok := lookupEnv("PRICER_CAPTURE_S3_SECRET_ACCESS_KEY"); ok {
		c.Capture.S3.SecretAccessKey = value
	}
	if value, ok := lookupEnv("PRICER_CAPTURE_S3_SESSION_TOKEN"); ok {
		c.Capture.S3.SessionToken = value
	}
	if value, ok := lookupEnv("PRICER_CAPTURE_S3_PREFIX"); ok {
		c.Capture.S3.Prefix = value
	}
	if err := envBool("PRICER_CAPTURE_S3_PATH_STYLE", &c.Capture.S3.PathStyle); err != nil {
		return err
	}

	if value, ok := lookupEnv("PRICER_LOG_LEVEL"); ok {
		c.Log.Level = value
	}
	if value, ok := lookupEnv("PRICER_LOG_FORMAT"); ok {
		c.Log.Format = value
	}
	if value, ok := lookupEnv("PRICER_APP_NAME"); ok {
		c.App.Name = value
	}
	if value, ok := lookupEnv("PRICER_APP_ALLOWED_ORIGINS"); ok {
		c.App.AllowedOrigins = splitList(value)
	}

	return nil
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

func envDuration(key string, target *time.Duration) error {
	value, ok := lookupEnv(key)
	if !ok {
		return nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*target = duration
	return nil
}

func envInt(key string, target *int) error {
	value, ok := lookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*target = parsed
	return nil
}

func envBool(key string, target *bool) error {
	value, ok := lookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*target = parsed
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func applyRedisURL(cfg *CacheRedisConfig) error {
	if cfg == nil {
		return nil
	}
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("cache redis url: %w", err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("cache redis url: missing host")
	}
	if parsed.User != nil {
		if password, ok := parsed.User.Password(); ok {
			cfg.Password = password
		}
	}
	if path := strings.Trim(parsed.Path, "/"); path != "" {
		dbIndex, err := strconv.Atoi(path)
		if err != nil {
			return fmt.Errorf("cache redis url: invalid db index")
		}
		cfg.DB = dbIndex
	}
	query := parsed.Query()
	if value := strings.TrimSpace(query.Get("db")); value != "" {
		dbIndex, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("cache redis url: invalid db query param")
		}
		cfg.DB = dbIndex
	}
	for _, param := range []string{"ssl", "tls"} {
		if value := strings.ToLower(strings.TrimSpace(query.Get(param))); value != "" {
			parsedBool, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("cache redis url: invalid %s query param", param)
			}
			cfg.UseTLS = parsedBool
		}
	}

	if strings.ToLower(parsed.Scheme) == "rediss" {
		cfg.UseTLS = true
	}
	if cfg.Addr == "" {
		cfg.Addr = parsed.Host
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server address is required")
	}

	if c.Sources.Timeout <= 0 {
		c.Sources.Timeout = 10 * time.Second
	}
	for name, endpoint := range map[string]string{
		"pricecharting": c.Sources.PriceCharting.BaseURL,
		"ebay":          c.Sources.Ebay.BaseURL,
	} {
		if strings.TrimSpace(endpoint) == "" {
			continue
		}
		parsed, err := url.Parse(endpoint)
		if err != nil || parsed.Host == "" {
			return fmt.Errorf("sources %s base url must be a valid url", name)
		}
		scheme := strings.ToLower(parsed.Scheme)
		if scheme != "http" && scheme != "https" {
			return fmt.Errorf("sources %s base url must use http or https", name)
		}
	}

	cacheProvider := strings.ToLower(strings.TrimSpace(c.Cache.Provider))
	if cacheProvider == "" {
		cacheProvider = "memory"
	}
	c.Cache.Provider = cacheProvider
	switch cacheProvider {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(c.Cache.Directory) == "" {
			return fmt.Errorf("cache directory is required for sqlite")
		}
	case "redis":
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			return fmt.Errorf("cache redis addr is required")
		}
	default:
		return fmt.Errorf("cache provider must be memory, sqlite or redis")
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = time.Hour
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache max entries must not be negative")
	}

	method := strings.ToLower(strings.TrimSpace(c.Capture.Method))
	if method == "" {
		method = "local"
	}
	c.Capture.Method = method
	if method != "local" && method != "s3" {
		return fmt.Errorf("capture method must be local or s3")
	}
	if c.Capture.Enabled {
		if method == "local" && strings.TrimSpace(c.Capture.Local.Directory) == "" {
			return fmt.Errorf("capture local directory is required")
		}
		if method == "s3" {
			if strings.TrimSpace(c.Capture.S3.Bucket) == "" {
				return fmt.Errorf("capture s3 bucket is required")
			}
			if strings.TrimSpace(c.Capture.S3.Region) == "" {
				return fmt.Errorf("capture s3 region is required")
			}
		}
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log format must be text or json")
	}

	return nil
}
