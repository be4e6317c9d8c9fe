package pricecharting

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/matthewgall/pricer/internal/models"
	"github.com/matthewgall/pricer/internal/platforms"
	"github.com/matthewgall/pricer/internal/scrape"
)

const DefaultBaseURL = "https://www.pricecharting.com"

const (
	maxResults     = 5
	maxSuggestions = 8
	maxTitleLength = 100
)

// Fetcher retrieves and parses one page.
type Fetcher interface {
	Fetch(ctx context.Context, source models.Source, target, label string) (*goquery.Document, error)
}

type Client struct {
	fetcher    Fetcher
	baseURL    *url.URL
	strategies []Strategy
}

type Option func(*Client)

// WithStrategies replaces the parse chain. Strategies run in order and the
// first one that yields products wins.
func WithStrategies(strategies ...Strategy) Option {
	return func(c *Client) {
		c.strategies = strategies
	}
}

func New(fetcher Fetcher, baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing pricecharting base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("pricecharting base url must be absolute: %q", baseURL)
	}

	c := &Client{
		fetcher:    fetcher,
		baseURL:    parsed,
		strategies: DefaultStrategies(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SearchURL builds the catalog search URL. Unknown platform codes add no
// console filter.
func (c *Client) SearchURL(query, platform string) string {
	values := url.Values{}
	values.Set("q", query)
	values.Set("type", "videogames")
	if slug := platforms.CatalogSlug(platform); slug != "" {
		values.Set("console", slug)
	}
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/search-products"
	u.RawQuery = values.Encode()
	return u.String()
}

// FetchCatalogPrice looks query up on the catalog. Transport problems yield
// a failed result and pages with nothing recognisable yield no data.
func (c *Client) FetchCatalogPrice(ctx context.Context, query, platform string) models.SourceResult[models.CatalogResult] {
	searchURL := c.SearchURL(query, platform)
	doc, err := c.fetcher.Fetch(ctx, models.SourceCatalog, searchURL, query)
	if err != nil {
		return models.Failed[models.CatalogResult](fmt.Sprintf("PriceCharting fetch failed: %v", err))
	}

	for _, strategy := range c.strategies {
		products := strategy.Extract(doc, c.baseURL)
		if len(products) == 0 {
			continue
		}
		slog.DebugContext(ctx, "catalog parsed", "strategy", strategy.Name, "products", len(products))
		return models.OK(models.CatalogResult{
			Source:    models.SourceCatalog,
			SearchURL: searchURL,
			Products:  products,
			TopResult: products[0],
		})
	}

	return models.NoData[models.CatalogResult]()
}

// SearchCatalog returns lightweight autocomplete suggestions. Failures
// degrade to an empty list.
func (c *Client) SearchCatalog(ctx context.Context, query, platform string) []models.Suggestion {
	doc, err := c.fetcher.Fetch(ctx, models.SourceCatalog, c.SearchURL(query, platform), query)
	if err != nil {
		slog.WarnContext(ctx, "catalog search failed", "query", query, "error", err)
		return []models.Suggestion{}
	}
	return parseSuggestions(doc)
}

func parseSuggestions(doc *goquery.Document) []models.Suggestion {
	suggestions := []models.Suggestion{}
	doc.Find(".offer, table.hoverable-rows tbody tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i >= maxSuggestions {
			return false
		}
		title := scrape.Text(row.Find(".product_name, td").First())
		if title == "" {
			return true
		}
		suggestion := models.Suggestion{Title: scrape.Truncate(title, maxTitleLength)}
		if console := scrape.Text(row.Find(".console-name, .console")); console != "" {
			suggestion.Platform = &console
		}
		suggestions = append(suggestions, suggestion)
		return true
	})
	return suggestions
}
