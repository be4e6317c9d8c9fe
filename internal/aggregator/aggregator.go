// Package aggregator combines the catalog and marketplace sources into a
// single price estimate.
package aggregator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matthewgall/pricer/internal/models"
	"github.com/matthewgall/pricer/internal/pricing"
	"github.com/matthewgall/pricer/internal/roi"
)

var tracer = otel.Tracer("github.com/matthewgall/pricer/internal/aggregator")

type CatalogSource interface {
	FetchCatalogPrice(ctx context.Context, query, platform string) models.SourceResult[models.CatalogResult]
}

type MarketplaceSource interface {
	FetchSoldListings(ctx context.Context, query, platform string) models.SourceResult[models.MarketplaceResult]
}

type Aggregator struct {
	catalog     CatalogSource
	marketplace MarketplaceSource
	now         func() time.Time
}

func New(catalog CatalogSource, marketplace MarketplaceSource) *Aggregator {
	return &Aggregator{
		catalog:     catalog,
		marketplace: marketplace,
		now:         time.Now,
	}
}

// Lookup queries both sources concurrently and waits for both. A failing
// source never fails the lookup; it is reported in the result instead.
func (a *Aggregator) Lookup(ctx context.Context, query, platform string) models.AggregateResult {
	ctx, span := tracer.Start(ctx, "aggregator.lookup", trace.WithAttributes(
		attribute.String("query", query),
		attribute.String("platform", platform),
	))
	defer span.End()

	var (
		wg          sync.WaitGroup
		catalog     models.SourceResult[models.CatalogResult]
		marketplace models.SourceResult[models.MarketplaceResult]
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		catalog = a.catalog.FetchCatalogPrice(ctx, query, platform)
	}()
	go func() {
		defer wg.Done()
		marketplace = a.marketplace.FetchSoldListings(ctx, query, platform)
	}()
	wg.Wait()

	if catalog.Status == models.StatusFailed {
		slog.WarnContext(ctx, "catalog source failed", "query", query, "platform", platform, "error", catalog.Error)
	}
	if marketplace.Status == models.StatusFailed {
		slog.WarnContext(ctx, "marketplace source failed", "query", query, "platform", platform, "error", marketplace.Error)
	}

	result := Combine(query, platform, catalog, marketplace, a.now())
	span.SetAttributes(
		attribute.String("catalog.status", catalog.Status.String()),
		attribute.String("marketplace.status", marketplace.Status.String()),
		attribute.Bool("has_price", result.HasPrice()),
	)
	return result
}

// Combine builds the aggregate from already-settled source results. It is
// deterministic for a given now.
func Combine(
	query, platform string,
	catalog models.SourceResult[models.CatalogResult],
	marketplace models.SourceResult[models.MarketplaceResult],
	now time.Time,
) models.AggregateResult {
	result := models.AggregateResult{
		Query:     query,
		Timestamp: now.UTC(),
		Sources: models.Sources{
			Catalog:     catalog,
			Marketplace: marketplace,
		},
	}
	if p := strings.TrimSpace(platform); p != "" {
		result.Platform = &p
	}

	var representative, points []float64

	if catalog.HasData() {
		prices := catalog.Data.TopResult.Prices
		switch {
		case pricing.Positive(prices.CIB):
			representative = append(representative, *prices.CIB)
		case pricing.Positive(prices.Loose):
			representative = append(representative, *prices.Loose)
		}
		if pricing.Positive(prices.Loose) {
			points = append(points, *prices.Loose)
		}
		if pricing.Positive(prices.CIB) {
			points = append(points, *prices.CIB)
		}
	}

	if marketplace.HasData() {
		stats := marketplace.Data.Stats
		if pricing.Positive(stats.Median) {
			representative = append(representative, *stats.Median)
		}
		if stats.Min > 0 {
			points = append(points, stats.Min)
		}
		if stats.Max > 0 {
			points = append(points, stats.Max)
		}
	}

	result.BestPrice = pricing.Mean(representative)
	result.PriceRange = priceRange(points)
	if result.BestPrice != nil {
		recommended := Recommend(*result.BestPrice)
		result.RecommendedPricing = &recommended
	}
	return result
}

func priceRange(points []float64) models.PriceRange {
	if len(points) == 0 {
		return models.PriceRange{}
	}
	low, high := points[0], points[0]
	for _, p := range points[1:] {
		if p < low {
			low = p
		}
		if p > high {
			high = p
		}
	}
	return models.PriceRange{Low: &low, High: &high}
}

// Recommend derives the shop's sell and maximum buy prices from a market
// price using the same markups as the ROI calculator.
func Recommend(bestPrice float64) models.RecommendedPricing {
	return models.RecommendedPricing{
		Sell85:   pricing.Percent(bestPrice, roi.SellPercentLow),
		Sell90:   pricing.Percent(bestPrice, roi.SellPercentHigh),
		MaxBuy50: pricing.Percent(bestPrice, roi.MaxBuyPercentHigh),
		MaxBuy40: pricing.Percent(bestPrice, roi.MaxBuyPercentLow),
	}
}
