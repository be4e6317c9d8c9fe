package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/matthewgall/pricer/internal/cache"
	"github.com/matthewgall/pricer/internal/models"
)

func ptr(v float64) *float64 { return &v }

type fakeCatalog struct {
	result models.SourceResult[models.CatalogResult]
	calls  atomic.Int32
}

func (f *fakeCatalog) FetchCatalogPrice(context.Context, string, string) models.SourceResult[models.CatalogResult] {
	f.calls.Add(1)
	return f.result
}

type fakeMarketplace struct {
	result models.SourceResult[models.MarketplaceResult]
	calls  atomic.Int32
}

func (f *fakeMarketplace) FetchSoldListings(context.Context, string, string) models.SourceResult[models.MarketplaceResult] {
	f.calls.Add(1)
	return f.result
}

func catalogOK(loose, cib *float64) models.SourceResult[models.CatalogResult] {
	product := models.CatalogProduct{Title: "Super Mario 64", Prices: models.PriceQuote{Loose: loose, CIB: cib}}
	return models.OK(models.CatalogResult{
		Source:    models.SourceCatalog,
		Products:  []models.CatalogProduct{product},
		TopResult: product,
	})
}

func marketplaceOK(median, min, max float64) models.SourceResult[models.MarketplaceResult] {
	return models.OK(models.MarketplaceResult{
		Source: models.SourceMarketplace,
		Stats:  models.SoldListingStats{Count: 3, Average: ptr(median), Median: ptr(median), Min: min, Max: max},
	})
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestCombineBothSources(t *testing.T) {
	result := Combine("mario 64", "N64", catalogOK(ptr(30), ptr(50)), marketplaceOK(40, 25, 60), fixedNow)

	require.NotNil(t, result.BestPrice)
	require.Equal(t, 45.0, *result.BestPrice)
	require.Equal(t, 25.0, *result.PriceRange.Low)
	require.Equal(t, 60.0, *result.PriceRange.High)
	require.Equal(t, "N64", *result.Platform)
	require.Equal(t, fixedNow, result.Timestamp)
	require.Equal(t, &models.RecommendedPricing{Sell85: 38.25, Sell90: 40.5, MaxBuy50: 22.5, MaxBuy40: 18}, result.RecommendedPricing)
}

func TestCombineCatalogFallsBackToLoose(t *testing.T) {
	result := Combine("q", "", catalogOK(ptr(20), nil), models.NoData[models.MarketplaceResult](), fixedNow)

	require.Equal(t, 20.0, *result.BestPrice)
	require.Equal(t, 20.0, *result.PriceRange.Low)
	require.Equal(t, 20.0, *result.PriceRange.High)
	require.Nil(t, result.Platform)
}

func TestCombineZeroPricesAreIgnored(t *testing.T) {
	result := Combine("q", "", catalogOK(ptr(0), ptr(0)), models.NoData[models.MarketplaceResult](), fixedNow)

	require.Nil(t, result.BestPrice)
	require.Nil(t, result.RecommendedPricing)
	require.Nil(t, result.PriceRange.Low)
	require.Nil(t, result.PriceRange.High)
}

func TestCombineIsDeterministic(t *testing.T) {
	catalog := catalogOK(ptr(12.5), ptr(19.99))
	marketplace := marketplaceOK(17.25, 9.99, 30)

	first := Combine("zelda", "NES", catalog, marketplace, fixedNow)
	second := Combine("zelda", "NES", catalog, marketplace, fixedNow)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("Combine not deterministic (-first +second):\n%s", diff)
	}
}

func TestLookupPartialFailure(t *testing.T) {
	t.Run("catalog fails", func(t *testing.T) {
		agg := New(
			&fakeCatalog{result: models.Failed[models.CatalogResult]("PriceCharting fetch failed: timeout")},
			&fakeMarketplace{result: marketplaceOK(40, 30, 50)},
		)
		result := agg.Lookup(context.Background(), "q", "")
		require.Equal(t, models.StatusFailed, result.Sources.Catalog.Status)
		require.Equal(t, 40.0, *result.BestPrice)
		require.Equal(t, 30.0, *result.PriceRange.Low)
		require.Equal(t, 50.0, *result.PriceRange.High)
	})

	t.Run("marketplace fails", func(t *testing.T) {
		agg := New(
			&fakeCatalog{result: catalogOK(ptr(10), ptr(24))},
			&fakeMarketplace{result: models.Failed[models.MarketplaceResult]("eBay fetch failed: 503")},
		)
		result := agg.Lookup(context.Background(), "q", "")
		require.Equal(t, models.StatusFailed, result.Sources.Marketplace.Status)
		require.Equal(t, 24.0, *result.BestPrice)
		require.Equal(t, 10.0, *result.PriceRange.Low)
		require.Equal(t, 24.0, *result.PriceRange.High)
	})
}

func TestLookupTotalFailure(t *testing.T) {
	agg := New(
		&fakeCatalog{result: models.Failed[models.CatalogResult]("down")},
		&fakeMarketplace{result: models.Failed[models.MarketplaceResult]("down")},
	)
	result := agg.Lookup(context.Background(), "q", "PS2")

	require.False(t, result.HasPrice())
	require.Nil(t, result.RecommendedPricing)
	require.Equal(t, models.PriceRange{}, result.PriceRange)
	require.Equal(t, "down", result.Sources.Catalog.Error)
	require.Equal(t, "down", result.Sources.Marketplace.Error)
}

func TestRecommend(t *testing.T) {
	require.Equal(t, models.RecommendedPricing{Sell85: 85, Sell90: 90, MaxBuy50: 50, MaxBuy40: 40}, Recommend(100))
	require.Equal(t, models.RecommendedPricing{Sell85: 16.99, Sell90: 17.99, MaxBuy50: 10, MaxBuy40: 8}, Recommend(19.99))
}

type clockedCache struct {
	mu      sync.Mutex
	now     time.Time
	entries map[string]models.CacheEntry
	failGet bool
}

func newClockedCache() *clockedCache {
	return &clockedCache{now: fixedNow, entries: map[string]models.CacheEntry{}}
}

func (c *clockedCache) Get(_ context.Context, key string) (*models.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, errors.New("backend unavailable")
	}
	entry, ok := c.entries[key]
	if !ok || entry.Expired(c.now) {
		return nil, nil
	}
	return &entry, nil
}

func (c *clockedCache) Set(_ context.Context, key string, payload interface{}, ttl time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = models.CacheEntry{Key: key, PayloadJSON: string(data), FetchedAt: c.now, ExpiresAt: c.now.Add(ttl)}
	return nil
}

func (c *clockedCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *clockedCache) ClearExpired(context.Context) error { return nil }
func (c *clockedCache) ClearAll(context.Context) error     { return nil }
func (c *clockedCache) Close() error                       { return nil }

func (c *clockedCache) Count(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries), nil
}

func (c *clockedCache) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var _ cache.Cache = (*clockedCache)(nil)

func TestResultCacheHitThenExpiry(t *testing.T) {
	catalog := &fakeCatalog{result: catalogOK(ptr(30), ptr(50))}
	marketplace := &fakeMarketplace{result: models.NoData[models.MarketplaceResult]()}
	store := newClockedCache()
	rc := NewResultCache(store, New(catalog, marketplace), time.Hour)
	ctx := context.Background()

	first := rc.GetOrCompute(ctx, "Mario 64", "N64")
	require.False(t, first.Cached)
	require.Equal(t, int32(1), catalog.calls.Load())

	second := rc.GetOrCompute(ctx, "mario 64", "N64")
	require.True(t, second.Cached)
	require.Equal(t, int32(1), catalog.calls.Load())
	require.Equal(t, *first.BestPrice, *second.BestPrice)

	store.advance(time.Hour)
	third := rc.GetOrCompute(ctx, "mario 64", "N64")
	require.False(t, third.Cached)
	require.Equal(t, int32(2), catalog.calls.Load())
	require.Equal(t, int32(2), marketplace.calls.Load())

	stats, keys, err := rc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, CacheStats{Hits: 1, Misses: 2}, stats)
	require.Equal(t, 1, keys)
}

func TestResultCacheBackendErrorStillComputes(t *testing.T) {
	catalog := &fakeCatalog{result: catalogOK(ptr(30), nil)}
	store := newClockedCache()
	store.failGet = true
	rc := NewResultCache(store, New(catalog, &fakeMarketplace{result: models.NoData[models.MarketplaceResult]()}), 0)

	result := rc.GetOrCompute(context.Background(), "q", "")
	require.False(t, result.Cached)
	require.Equal(t, 30.0, *result.BestPrice)

	result = rc.GetOrCompute(context.Background(), "q", "")
	require.False(t, result.Cached)
	require.Equal(t, int32(2), catalog.calls.Load())
}

func TestResultCacheWithMemoryBackend(t *testing.T) {
	catalog := &fakeCatalog{result: catalogOK(ptr(30), ptr(45))}
	rc := NewResultCache(cache.NewMemory(10, time.Minute), New(catalog, &fakeMarketplace{result: marketplaceOK(35, 20, 60)}), time.Minute)

	first := rc.GetOrCompute(context.Background(), "Zelda", "")
	second := rc.GetOrCompute(context.Background(), "zelda", "")
	require.True(t, second.Cached)
	first.Cached = true
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("cached result differs (-want +got):\n%s", diff)
	}
}

func TestCacheKey(t *testing.T) {
	require.Equal(t, "price_super mario 64_N64", CacheKey("Super Mario 64", "N64"))
	require.Equal(t, "price_zelda_all", CacheKey("ZELDA", ""))
}
