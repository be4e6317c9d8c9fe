package models

import (
	"time"
)

type Source string

const (
	SourceCatalog     Source = "pricecharting"
	SourceMarketplace Source = "ebay_sold"
)

type SourceStatus string

const (
	StatusOK     SourceStatus = "ok"
	StatusNoData SourceStatus = "no_data"
	StatusFailed SourceStatus = "failed"
)

// Condition is the physical grade a reseller assigns to an item.
type Condition string

const (
	ConditionLikeNew    Condition = "like-new"
	ConditionExcellent  Condition = "excellent"
	ConditionGood       Condition = "good"
	ConditionAcceptable Condition = "acceptable"
)

func (s Source) String() string {
	return string(s)
}

func (s SourceStatus) String() string {
	return string(s)
}

func (c Condition) Valid() bool {
	_, ok := conditionMultipliers[c]
	return ok
}

func (c Condition) String() string {
	return string(c)
}

var conditionMultipliers = map[Condition]float64{
	ConditionLikeNew:    1.0,
	ConditionExcellent:  0.95,
	ConditionGood:       0.85,
	ConditionAcceptable: 0.70,
}

// Multiplier returns the value adjustment for the grade. Unknown grades are
// not adjusted.
func (c Condition) Multiplier() float64 {
	if m, ok := conditionMultipliers[c]; ok {
		return m
	}
	return 1.0
}

type ConditionInfo struct {
	Code        Condition `json:"code"`
	Name        string    `json:"name"`
	Adjustment  float64   `json:"adjustment"`
	Description string    `json:"description"`
}

func Conditions() []ConditionInfo {
	return []ConditionInfo{
		{Code: ConditionLikeNew, Name: "Like New", Adjustment: 1.0, Description: "Near perfect, minimal wear"},
		{Code: ConditionExcellent, Name: "Excellent", Adjustment: 0.95, Description: "Light wear, minor scratches"},
		{Code: ConditionGood, Name: "Good", Adjustment: 0.85, Description: "Moderate wear, plays fine"},
		{Code: ConditionAcceptable, Name: "Acceptable", Adjustment: 0.70, Description: "Heavy wear but works"},
	}
}

// PriceQuote holds per-condition prices from the catalog source. Any field
// may be nil.
type PriceQuote struct {
	Loose *float64 `json:"loose"`
	CIB   *float64 `json:"cib"`
	New   *float64 `json:"new"`
}

type CatalogProduct struct {
	Title  string     `json:"title"`
	Prices PriceQuote `json:"prices"`
	URL    *string    `json:"url,omitempty"`
}

type CatalogResult struct {
	Source    Source           `json:"source"`
	SearchURL string           `json:"searchUrl,omitempty"`
	Products  []CatalogProduct `json:"results"`
	TopResult CatalogProduct   `json:"topResult"`
}

type SoldListing struct {
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	SoldDate *string `json:"soldDate"`
}

type SoldListingStats struct {
	Count   int      `json:"count"`
	Average *float64 `json:"average"`
	Median  *float64 `json:"median"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
}

type MarketplaceResult struct {
	Source      Source           `json:"source"`
	SearchURL   string           `json:"searchUrl"`
	Stats       SoldListingStats `json:"stats"`
	RecentSales []SoldListing    `json:"recentSales"`
}

// SourceResult is the outcome of one source fetch. Data is set only for
// StatusOK and Error only for StatusFailed.
type SourceResult[T any] struct {
	Status SourceStatus `json:"status"`
	Data   *T           `json:"data,omitempty"`
	Error  string       `json:"error,omitempty"`
}

func OK[T any](data T) SourceResult[T] {
	return SourceResult[T]{Status: StatusOK, Data: &data}
}

func NoData[T any]() SourceResult[T] {
	return SourceResult[T]{Status: StatusNoData}
}

func Failed[T any](reason string) SourceResult[T] {
	return SourceResult[T]{Status: StatusFailed, Error: reason}
}

func (r SourceResult[T]) HasData() bool {
	return r.Status == StatusOK && r.Data != nil
}

type PriceRange struct {
	Low  *float64 `json:"low"`
	High *float64 `json:"high"`
}

type RecommendedPricing struct {
	Sell85   float64 `json:"sell85"`
	Sell90   float64 `json:"sell90"`
	MaxBuy50 float64 `json:"maxBuy50"`
	MaxBuy40 float64 `json:"maxBuy40"`
}

type Sources struct {
	Catalog     SourceResult[CatalogResult]     `json:"catalog"`
	Marketplace SourceResult[MarketplaceResult] `json:"marketplace"`
}

type AggregateResult struct {
	Query              string              `json:"query"`
	Platform           *string             `json:"platform"`
	Timestamp          time.Time           `json:"timestamp"`
	BestPrice          *float64            `json:"bestPrice"`
	PriceRange         PriceRange          `json:"priceRange"`
	Sources            Sources             `json:"sources"`
	RecommendedPricing *RecommendedPricing `json:"recommendedPricing"`
	Cached             bool                `json:"cached"`
}

// HasPrice reports whether any source contributed a usable price.
func (a AggregateResult) HasPrice() bool {
	return a.BestPrice != nil
}

type Suggestion struct {
	Title    string  `json:"title"`
	Platform *string `json:"platform"`
}

type CacheEntry struct {
	Key         string    `json:"key"`
	PayloadJSON string    `json:"payload_json"`
	FetchedAt   time.Time `json:"fetched_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (e CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
