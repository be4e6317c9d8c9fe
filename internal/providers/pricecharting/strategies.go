package pricecharting

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/matthewgall/pricer/internal/models"
	"github.com/matthewgall/pricer/internal/pricing"
	"github.com/matthewgall/pricer/internal/scrape"
)

// Strategy turns a fetched page into catalog products. An empty return
// hands the page to the next strategy.
type Strategy struct {
	Name    string
	Extract func(doc *goquery.Document, base *url.URL) []models.CatalogProduct
}

func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "product_page", Extract: parseProductPage},
		{Name: "search_offers", Extract: parseOffers},
		{Name: "search_table", Extract: parseTable},
	}
}

// parseProductPage handles searches that redirect straight to one product.
func parseProductPage(doc *goquery.Document, _ *url.URL) []models.CatalogProduct {
	title := scrape.Text(doc.Find("#product_name"))
	if title == "" {
		return nil
	}

	var prices models.PriceQuote
	doc.Find("#price_data td.price").Each(func(_ int, cell *goquery.Selection) {
		price := pricing.ParseMoney(scrape.Text(cell))
		label := strings.ToLower(scrape.Text(cell.PrevFiltered("td")))
		switch {
		case strings.Contains(label, "loose"):
			prices.Loose = price
		case strings.Contains(label, "cib"), strings.Contains(label, "complete"):
			prices.CIB = price
		case strings.Contains(label, "new"), strings.Contains(label, "sealed"):
			prices.New = price
		}
	})

	if !pricing.Positive(prices.Loose) {
		text := scrape.Text(doc.Find("#used_price"))
		if text == "" {
			text = scrape.Text(doc.Find("#complete_price"))
		}
		prices.Loose = pricing.ParseMoney(text)
	}
	if !pricing.Positive(prices.CIB) {
		prices.CIB = pricing.ParseMoney(scrape.Text(doc.Find("#complete_price")))
	}
	if !pricing.Positive(prices.New) {
		prices.New = pricing.ParseMoney(scrape.Text(doc.Find("#new_price")))
	}

	return []models.CatalogProduct{{Title: title, Prices: prices}}
}

func parseOffers(doc *goquery.Document, base *url.URL) []models.CatalogProduct {
	var products []models.CatalogProduct
	doc.Find(".offer").EachWithBreak(func(i int, offer *goquery.Selection) bool {
		if i >= maxResults {
			return false
		}
		title := scrape.Text(offer.Find(".product_name"))
		if title == "" {
			return true
		}
		cells := offer.Find(".price.js-price")
		product := models.CatalogProduct{
			Title: title,
			Prices: models.PriceQuote{
				Loose: pricing.ParseMoney(scrape.Text(cells.Eq(0))),
				CIB:   pricing.ParseMoney(scrape.Text(cells.Eq(1))),
				New:   pricing.ParseMoney(scrape.Text(cells.Eq(2))),
			},
		}
		if href, ok := offer.Find("a").First().Attr("href"); ok && href != "" {
			product.URL = resolve(base, href)
		}
		products = append(products, product)
		return true
	})
	return products
}

// parseTable reads the older hoverable-rows layout, which only carries a
// loose price.
func parseTable(doc *goquery.Document, _ *url.URL) []models.CatalogProduct {
	var products []models.CatalogProduct
	doc.Find("table.hoverable-rows tbody tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i >= maxResults {
			return false
		}
		title := scrape.Text(row.Find("td").First())
		loose := pricing.ParseMoney(scrape.Text(row.Find("td.price").First()))
		if title == "" || !pricing.Positive(loose) {
			return true
		}
		products = append(products, models.CatalogProduct{
			Title:  title,
			Prices: models.PriceQuote{Loose: loose},
		})
		return true
	})
	return products
}

func resolve(base *url.URL, href string) *string {
	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}
	abs := base.ResolveReference(ref).String()
	return &abs
}
