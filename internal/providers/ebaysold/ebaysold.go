// Package ebaysold scrapes eBay's completed and sold listings search.
package ebaysold

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"

	"github.com/matthewgall/pricer/internal/models"
	"github.com/matthewgall/pricer/internal/platforms"
	"github.com/matthewgall/pricer/internal/pricing"
	"github.com/matthewgall/pricer/internal/scrape"
)

const DefaultBaseURL = "https://www.ebay.com"

const (
	maxListings = 10
	maxRecent   = 5
)

// placeholderTitle marks the promotional tile eBay injects into results.
const placeholderTitle = "shop on ebay"

type Fetcher interface {
	Fetch(ctx context.Context, source models.Source, target, label string) (*goquery.Document, error)
}

type Client struct {
	fetcher Fetcher
	baseURL *url.URL
}

func New(fetcher Fetcher, baseURL string) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing ebay base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("ebay base url must be absolute: %q", baseURL)
	}
	return &Client{fetcher: fetcher, baseURL: parsed}, nil
}

// SearchText appends the platform's marketplace name to query when the
// platform is known.
func SearchText(query, platform string) string {
	if name := platforms.MarketplaceName(platform); name != "" {
		return query + " " + name
	}
	return query
}

func (c *Client) SearchURL(query, platform string) string {
	values := url.Values{}
	values.Set("_nkw", SearchText(query, platform))
	values.Set("LH_Complete", "1")
	values.Set("LH_Sold", "1")
	values.Set("_sop", "13")
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/sch/i.html"
	u.RawQuery = values.Encode()
	return u.String()
}

func (c *Client) FetchSoldListings(ctx context.Context, query, platform string) models.SourceResult[models.MarketplaceResult] {
	searchURL := c.SearchURL(query, platform)
	doc, err := c.fetcher.Fetch(ctx, models.SourceMarketplace, searchURL, query)
	if err != nil {
		return models.Failed[models.MarketplaceResult](fmt.Sprintf("eBay fetch failed: %v", err))
	}

	listings := parseListings(doc)
	if len(listings) == 0 {
		return models.NoData[models.MarketplaceResult]()
	}

	return models.OK(models.MarketplaceResult{
		Source:      models.SourceMarketplace,
		SearchURL:   searchURL,
		Stats:       Summarize(listings),
		RecentSales: lo.Slice(listings, 0, maxRecent),
	})
}

// parseListings reads the first ten result tiles and silently drops
// placeholders and tiles without a positive price.
func parseListings(doc *goquery.Document) []models.SoldListing {
	var listings []models.SoldListing
	doc.Find(".s-item").EachWithBreak(func(i int, item *goquery.Selection) bool {
		if i >= maxListings {
			return false
		}
		title := scrape.Text(item.Find(".s-item__title"))
		if title == "" || strings.Contains(strings.ToLower(title), placeholderTitle) {
			return true
		}
		price := pricing.ParseMoney(scrape.Text(item.Find(".s-item__price")))
		if !pricing.Positive(price) {
			return true
		}
		listing := models.SoldListing{Title: title, Price: *price}
		if sold := scrape.Text(item.Find(".s-item__title--tagblock .POSITIVE")); sold != "" {
			listing.SoldDate = &sold
		}
		listings = append(listings, listing)
		return true
	})
	return listings
}

// Summarize computes stats over a non-empty listing set.
func Summarize(listings []models.SoldListing) models.SoldListingStats {
	prices := lo.Map(listings, func(l models.SoldListing, _ int) float64 { return l.Price })
	return models.SoldListingStats{
		Count:   len(listings),
		Average: pricing.Mean(prices),
		Median:  pricing.Median(prices),
		Min:     lo.Min(prices),
		Max:     lo.Max(prices),
	}
}
