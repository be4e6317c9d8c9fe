// Package app assembles the lookup pipeline from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/matthewgall/pricer/internal/aggregator"
	"github.com/matthewgall/pricer/internal/cache"
	"github.com/matthewgall/pricer/internal/capture"
	"github.com/matthewgall/pricer/internal/config"
	"github.com/matthewgall/pricer/internal/providers/ebaysold"
	"github.com/matthewgall/pricer/internal/providers/pricecharting"
	"github.com/matthewgall/pricer/internal/scrape"
)

type App struct {
	Store       cache.Cache
	Catalog     *pricecharting.Client
	Marketplace *ebaysold.Client
	Aggregator  *aggregator.Aggregator
	Prices      *aggregator.ResultCache
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	opts := scrape.Options{
		Timeout:          cfg.Sources.Timeout,
		BypassCloudflare: cfg.Sources.BypassCloudflare,
	}
	if ua := strings.TrimSpace(cfg.Sources.UserAgent); ua != "" {
		opts.UserAgent = func() string { return ua }
	}
	if cfg.Capture.Enabled {
		storage, err := capture.New(ctx, cfg.Capture)
		if err != nil {
			return nil, fmt.Errorf("initializing capture storage: %w", err)
		}
		opts.Recorder = capture.NewRecorder(storage)
		slog.InfoContext(ctx, "capturing source pages", "method", cfg.Capture.Method)
	}
	fetcher := scrape.New(opts)

	catalog, err := pricecharting.New(fetcher, cfg.Sources.PriceCharting.BaseURL)
	if err != nil {
		return nil, err
	}
	marketplace, err := ebaysold.New(fetcher, cfg.Sources.Ebay.BaseURL)
	if err != nil {
		return nil, err
	}

	store, err := cache.NewFromConfig(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("initializing %s cache: %w", cfg.Cache.Provider, err)
	}
	slog.InfoContext(ctx, "using cache", "provider", cfg.Cache.Provider, "ttl", cfg.Cache.TTL)

	agg := aggregator.New(catalog, marketplace)
	return &App{
		Store:       store,
		Catalog:     catalog,
		Marketplace: marketplace,
		Aggregator:  agg,
		Prices:      aggregator.NewResultCache(store, agg, cfg.Cache.TTL),
	}, nil
}

// RunJanitor clears expired cache entries on the configured period until
// ctx is done.
func (a *App) RunJanitor(ctx context.Context, cfg config.CacheConfig) {
	cache.RunJanitor(ctx, a.Store, cfg.CheckPeriod)
}

func (a *App) Close() error {
	return a.Store.Close()
}
