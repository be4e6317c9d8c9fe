package pricecharting

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/matthewgall/pricer/internal/models"
	"github.com/matthewgall/pricer/internal/scrape"
)

// fixtureServer serves testdata/<q>.html for /search-products?q=<q>.
func fixtureServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var consoles []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search-products" || r.URL.Query().Get("type") != "videogames" {
			http.NotFound(w, r)
			return
		}
		consoles = append(consoles, r.URL.Query().Get("console"))
		q := r.URL.Query().Get("q")
		if q == "boom" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		body, err := os.ReadFile(filepath.Join("testdata", q+".html"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &consoles
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	fetcher := scrape.New(scrape.Options{UserAgent: func() string { return "pricer-test" }})
	client, err := New(fetcher, baseURL, opts...)
	require.NoError(t, err)
	return client
}

func price(v float64) *float64 { return &v }
func text(s string) *string    { return &s }

func TestFetchCatalogPriceProductPage(t *testing.T) {
	srv, _ := fixtureServer(t)
	client := newTestClient(t, srv.URL)

	result := client.FetchCatalogPrice(context.Background(), "product", "")
	require.Equal(t, models.StatusOK, result.Status)
	require.NotNil(t, result.Data)

	want := models.CatalogProduct{
		Title:  "Chrono Trigger",
		Prices: models.PriceQuote{Loose: price(189.99), CIB: price(534.50), New: price(2150)},
	}
	if diff := cmp.Diff(want, result.Data.TopResult); diff != "" {
		t.Errorf("TopResult mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, result.Data.Products, 1)
	require.Equal(t, models.SourceCatalog, result.Data.Source)
}

func TestFetchCatalogPriceProductPageFallbacks(t *testing.T) {
	srv, _ := fixtureServer(t)
	client := newTestClient(t, srv.URL)

	result := client.FetchCatalogPrice(context.Background(), "product_fallback", "")
	require.True(t, result.HasData())

	want := models.PriceQuote{Loose: price(24), CIB: price(24)}
	if diff := cmp.Diff(want, result.Data.TopResult.Prices); diff != "" {
		t.Errorf("Prices mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchCatalogPriceSearchOffers(t *testing.T) {
	srv, consoles := fixtureServer(t)
	client := newTestClient(t, srv.URL)

	result := client.FetchCatalogPrice(context.Background(), "search_offers", "ps5")
	require.True(t, result.HasData())
	require.Equal(t, []string{"playstation-5"}, *consoles)

	want := []models.CatalogProduct{
		{
			Title:  "Elden Ring",
			Prices: models.PriceQuote{Loose: price(22.50), CIB: price(28), New: price(39.95)},
			URL:    text(srv.URL + "/game/playstation-5/elden-ring"),
		},
		{
			Title:  "Elden Ring [Launch Edition]",
			Prices: models.PriceQuote{Loose: price(25), New: price(64.99)},
			URL:    text(srv.URL + "/game/playstation-5/elden-ring-launch-edition"),
		},
		{
			Title:  "Elden Ring Shadow of the Erdtree",
			Prices: models.PriceQuote{Loose: price(40)},
			URL:    text(srv.URL + "/game/playstation-5/elden-ring-shadow"),
		},
		{
			Title:  "Elden Ring PS4",
			Prices: models.PriceQuote{Loose: price(19)},
			URL:    text("https://www.pricecharting.com/game/playstation-4/elden-ring"),
		},
	}
	if diff := cmp.Diff(want, result.Data.Products); diff != "" {
		t.Errorf("Products mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, want[0], result.Data.TopResult)
	require.Contains(t, result.Data.SearchURL, "console=playstation-5")
}

func TestFetchCatalogPriceAlternateTable(t *testing.T) {
	srv, _ := fixtureServer(t)
	client := newTestClient(t, srv.URL)

	result := client.FetchCatalogPrice(context.Background(), "search_table", "")
	require.True(t, result.HasData())

	want := []models.CatalogProduct{
		{Title: "Super Mario 64", Prices: models.PriceQuote{Loose: price(38.25)}},
		{Title: "Super Mario 64 DS", Prices: models.PriceQuote{Loose: price(17.10)}},
	}
	if diff := cmp.Diff(want, result.Data.Products); diff != "" {
		t.Errorf("Products mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchCatalogPriceNoData(t *testing.T) {
	srv, _ := fixtureServer(t)
	client := newTestClient(t, srv.URL)

	result := client.FetchCatalogPrice(context.Background(), "empty", "")
	require.Equal(t, models.StatusNoData, result.Status)
	require.Nil(t, result.Data)
	require.Empty(t, result.Error)
}

func TestFetchCatalogPriceFailed(t *testing.T) {
	srv, _ := fixtureServer(t)
	client := newTestClient(t, srv.URL)

	result := client.FetchCatalogPrice(context.Background(), "boom", "")
	require.Equal(t, models.StatusFailed, result.Status)
	require.Contains(t, result.Error, "503")
	require.Nil(t, result.Data)
}

func TestUnknownPlatformAddsNoFilter(t *testing.T) {
	srv, consoles := fixtureServer(t)
	client := newTestClient(t, srv.URL)

	client.FetchCatalogPrice(context.Background(), "empty", "ATARI")
	require.Equal(t, []string{""}, *consoles)
	require.NotContains(t, client.SearchURL("x", "ATARI"), "console=")
}

func TestCustomStrategyOrder(t *testing.T) {
	srv, _ := fixtureServer(t)
	tableOnly := WithStrategies(Strategy{Name: "search_table", Extract: parseTable})
	client := newTestClient(t, srv.URL, tableOnly)

	result := client.FetchCatalogPrice(context.Background(), "search_offers", "")
	require.Equal(t, models.StatusNoData, result.Status)
}

func TestSearchCatalog(t *testing.T) {
	srv, _ := fixtureServer(t)
	client := newTestClient(t, srv.URL)

	offers := client.SearchCatalog(context.Background(), "search_offers", "")
	require.Len(t, offers, 6)
	require.Equal(t, "Elden Ring", offers[0].Title)
	require.Equal(t, text("Playstation 5"), offers[0].Platform)
	require.Nil(t, offers[2].Platform)

	rows := client.SearchCatalog(context.Background(), "search_table", "")
	want := []models.Suggestion{
		{Title: "Super Mario 64", Platform: text("Nintendo 64")},
		{Title: "Super Mario 64 DS", Platform: text("Nintendo DS")},
		{Title: "Super Mario 64 [Player's Choice]", Platform: text("Nintendo 64")},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("Suggestions mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchCatalogCapsAndTruncates(t *testing.T) {
	srv, _ := fixtureServer(t)
	client := newTestClient(t, srv.URL)

	got := client.SearchCatalog(context.Background(), "search_many", "")
	require.Len(t, got, maxSuggestions)
	require.Equal(t, "Final Fantasy VII Remake Intergrade Deluxe Collector's Edition with Steelbook Art Book Soundtrack an", got[0].Title)
	require.Len(t, []rune(got[0].Title), maxTitleLength)
	require.Equal(t, "Final Fantasy II", got[1].Title)
	require.Equal(t, "Final Fantasy IX", got[7].Title)
	require.Equal(t, text("Playstation 4"), got[7].Platform)
}

func TestSearchCatalogFailureIsEmpty(t *testing.T) {
	srv, _ := fixtureServer(t)
	client := newTestClient(t, srv.URL)

	got := client.SearchCatalog(context.Background(), "boom", "")
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	_, err := New(nil, "/relative")
	require.Error(t, err)

	client, err := New(nil, "")
	require.NoError(t, err)
	require.Equal(t, "https://www.pricecharting.com/search-products?q=mario&type=videogames", client.SearchURL("mario", ""))
}
