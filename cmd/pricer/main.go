package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/matthewgall/pricer/internal/app"
	"github.com/matthewgall/pricer/internal/config"
	"github.com/matthewgall/pricer/internal/http/server"
	"github.com/matthewgall/pricer/internal/logging"
	"github.com/matthewgall/pricer/internal/version"
)

var (
	configFile       = flag.String("config", "config.yaml", "Path to configuration file")
	envFile          = flag.String("env-file", ".env", "Path to .env file")
	showVersion      = flag.Bool("version", false, "Show version information")
	serverAddress    = flag.String("address", "", "Server address (host:port)")
	serverHost       = flag.String("host", "", "Server host")
	serverPort       = flag.Int("port", 0, "Server port")
	sourcesTimeout   = flag.Duration("sources-timeout", 0, "Per-request timeout for source fetches")
	userAgent        = flag.String("user-agent", "", "Fixed User-Agent for source fetches")
	bypassCloudflare = flag.Bool("bypass-cloudflare", false, "Use the Cloudflare bypass transport")
	pricechartingURL = flag.String("pricecharting-url", "", "PriceCharting base URL")
	ebayURL          = flag.String("ebay-url", "", "eBay base URL")
	cacheProvider    = flag.String("cache-provider", "", "Cache provider (memory, sqlite, redis)")
	cacheTTL         = flag.Duration("cache-ttl", 0, "Lookup cache TTL")
	cacheDir         = flag.String("cache-dir", "", "Cache directory (sqlite)")
	cacheMaxEntries  = flag.Int("cache-max-entries", 0, "Maximum entries for the memory cache")
	redisURL         = flag.String("redis-url", "", "Redis URL")
	captureEnabled   = flag.Bool("capture", false, "Save fetched source pages")
	captureDir       = flag.String("capture-dir", "", "Directory for captured pages")
	logLevel         = flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat        = flag.String("log-format", "", "Log format (text, json)")
	appNameFlag      = flag.String("app-name", "", "Application name")
	allowedOrigins   = flag.String("allowed-origins", "", "Comma separated CORS origins")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("pricer v%s\n", version.Version)
		os.Exit(0)
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		slog.Warn("ignoring env file", "path", *envFile, "error", err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := cfg.ApplyOverrides(buildOverrides(cfg)); err != nil {
		slog.Error("failed to apply overrides", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logging.New(cfg.Log, os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize lookup pipeline", "error", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	go pipeline.RunJanitor(ctx, cfg.Cache)

	srv := server.New(cfg, pipeline.Prices, pipeline.Catalog)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("starting server", "app", cfg.App.Name, "address", cfg.Server.Address, "version", version.Version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("server forced to shutdown", "error", err)
	}

	slog.Info("server exited")
}

func buildOverrides(cfg *config.Config) config.Overrides {
	overrides := config.Overrides{}
	if *serverAddress != "" {
		overrides.ServerAddress = serverAddress
	} else if *serverHost != "" || *serverPort != 0 {
		host, port := splitAddress(cfg.Server.Address)
		if *serverHost != "" {
			host = *serverHost
		}
		if *serverPort != 0 {
			port = fmt.Sprintf("%d", *serverPort)
		}
		if host == "" {
			host = "0.0.0.0"
		}
		if port == "" {
			port = "3000"
		}
		address := net.JoinHostPort(host, port)
		overrides.ServerAddress = &address
	}
	if *sourcesTimeout != 0 {
		overrides.SourcesTimeout = sourcesTimeout
	}
	if *userAgent != "" {
		overrides.SourcesUserAgent = userAgent
	}
	if *bypassCloudflare {
		overrides.SourcesBypassCF = bypassCloudflare
	}
	if *pricechartingURL != "" {
		overrides.PriceChartingURL = pricechartingURL
	}
	if *ebayURL != "" {
		overrides.EbayURL = ebayURL
	}
	if *cacheProvider != "" {
		overrides.CacheProvider = cacheProvider
	}
	if *cacheTTL != 0 {
		overrides.CacheTTL = cacheTTL
	}
	if *cacheDir != "" {
		overrides.CacheDirectory = cacheDir
	}
	if *cacheMaxEntries != 0 {
		overrides.CacheMaxEntries = cacheMaxEntries
	}
	if *redisURL != "" {
		overrides.CacheRedisURL = redisURL
	}
	if *captureEnabled {
		overrides.CaptureEnabled = captureEnabled
	}
	if *captureDir != "" {
		overrides.CaptureDirectory = captureDir
	}
	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}
	if *logFormat != "" {
		overrides.LogFormat = logFormat
	}
	if *appNameFlag != "" {
		overrides.AppName = appNameFlag
	}
	if *allowedOrigins != "" {
		origins := strings.Split(*allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		overrides.AppAllowedOrigins = &origins
	}
	return overrides
}

func splitAddress(address string) (string, string) {
	if address == "" {
		return "", ""
	}
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return "", ""
	}
	return host, port
}
