// Package pricing holds the pure money helpers shared by the source clients,
// the aggregator and the ROI calculator.
package pricing

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	nonNumeric    = regexp.MustCompile(`[^0-9.]`)
	leadingNumber = regexp.MustCompile(`^[0-9]*\.?[0-9]*`)
)

// ParseMoney strips everything but digits and dots and reads the longest
// leading decimal number from what remains. It returns nil when no number
// can be read.
//
// A range such as "$10.00 to $20.00" collapses to "10.0020.00" and reads
// as 10.002; callers that care about ranges must split them first.
func ParseMoney(text string) *float64 {
	cleaned := nonNumeric.ReplaceAllString(text, "")
	match := leadingNumber.FindString(cleaned)
	if match == "" || match == "." {
		return nil
	}
	if strings.HasPrefix(match, ".") {
		match = "0" + match
	}
	match = strings.TrimSuffix(match, ".")

	value, err := decimal.NewFromString(match)
	if err != nil {
		return nil
	}
	f := value.InexactFloat64()
	return &f
}

// Positive reports whether value holds a usable price. Zero is treated as no data.
func Positive(value *float64) bool {
	return value != nil && *value > 0
}

// Round2 rounds half away from zero to two decimal places.
func Round2(value float64) float64 {
	return decimal.NewFromFloat(value).Round(2).InexactFloat64()
}

// Percent returns value*pct rounded to two decimals, computed in decimal
// arithmetic so 85*0.85 is exactly 72.25.
func Percent(value, pct float64) float64 {
	return decimal.NewFromFloat(value).Mul(decimal.NewFromFloat(pct)).Round(2).InexactFloat64()
}

// Sub returns a-b rounded to two decimals.
func Sub(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

// Mean returns the arithmetic mean rounded to two decimals, or nil for no values.
func Mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(values)))).Round(2).InexactFloat64()
	return &mean
}

// Median sorts a copy of values ascending. Even-length input averages the
// two middle values and rounds to two decimals.
func Median(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		m := sorted[mid]
		return &m
	}
	return Mean([]float64{sorted[mid-1], sorted[mid]})
}

// Ratio returns round(numerator/denominator*100) as a whole percentage, or 0
// when denominator is not positive.
func Ratio(numerator, denominator float64) int {
	if denominator <= 0 {
		return 0
	}
	pct := decimal.NewFromFloat(numerator).
		Div(decimal.NewFromFloat(denominator)).
		Mul(decimal.NewFromInt(100))
	return int(pct.Round(0).IntPart())
}
