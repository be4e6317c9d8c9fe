// Package roi works out resale margins for a game bought at a known cost.
package roi

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/matthewgall/pricer/internal/models"
	"github.com/matthewgall/pricer/internal/pricing"
)

var ErrMissingInput = errors.New("missing required fields: marketValue and costPaid")

const (
	SellPercentLow          = 0.85
	SellPercentHigh         = 0.90
	MaxBuyPercentHigh       = 0.50
	MaxBuyPercentLow        = 0.40
	MinProfitThreshold      = 5.0
	MaxCostPercent          = 0.50
	DefaultSellPricePercent = SellPercentLow
)

const (
	ActionBuy  = "buy"
	ActionPass = "pass"
)

type Input struct {
	MarketValue      float64          `json:"marketValue"`
	CostPaid         float64          `json:"costPaid"`
	Condition        models.Condition `json:"condition"`
	SellPricePercent float64          `json:"sellPricePercent,omitempty"`
}

type EchoedInput struct {
	MarketValue         float64          `json:"marketValue"`
	CostPaid            float64          `json:"costPaid"`
	Condition           models.Condition `json:"condition"`
	ConditionMultiplier float64          `json:"conditionMultiplier"`
	SellPricePercent    float64          `json:"sellPricePercent"`
}

type Adjusted struct {
	MarketValue float64 `json:"marketValue"`
}

type Pricing struct {
	SellPrice85       float64 `json:"sellPrice85"`
	SellPrice90       float64 `json:"sellPrice90"`
	GrossProfit85     float64 `json:"grossProfit85"`
	GrossProfit90     float64 `json:"grossProfit90"`
	ROI85             int     `json:"roi85"`
	ROI90             int     `json:"roi90"`
	TargetSellPrice   float64 `json:"targetSellPrice"`
	TargetGrossProfit float64 `json:"targetGrossProfit"`
	TargetROI         int     `json:"targetROI"`
}

type Recommendation struct {
	Action             string  `json:"action"`
	IsProfitable       bool    `json:"isProfitable"`
	IsBelowMaxCost     bool    `json:"isBelowMaxCost"`
	MinProfitThreshold float64 `json:"minProfitThreshold"`
	// MaxCostPercent is expressed out of 100.
	MaxCostPercent float64 `json:"maxCostPercent"`
}

type Result struct {
	Input          EchoedInput    `json:"input"`
	Adjusted       Adjusted       `json:"adjusted"`
	Pricing        Pricing        `json:"pricing"`
	Recommendation Recommendation `json:"recommendation"`
}

// CalculateROI applies the condition multiplier to the market value and
// prices a resale at the standard markups plus the caller's target percent.
// A purchase is recommended when the profit at 85% clears the minimum and
// the cost is at most half the adjusted value.
func CalculateROI(in Input) (Result, error) {
	if in.MarketValue <= 0 || in.CostPaid <= 0 {
		return Result{}, ErrMissingInput
	}
	target := in.SellPricePercent
	if target <= 0 {
		target = DefaultSellPricePercent
	}

	multiplier := in.Condition.Multiplier()
	// The adjusted value stays unrounded; only the derived prices are rounded.
	adjusted := decimal.NewFromFloat(in.MarketValue).Mul(decimal.NewFromFloat(multiplier))

	sell85 := sellPrice(adjusted, SellPercentLow)
	sell90 := sellPrice(adjusted, SellPercentHigh)
	sellTarget := sellPrice(adjusted, target)

	profit85 := pricing.Sub(sell85, in.CostPaid)
	profit90 := pricing.Sub(sell90, in.CostPaid)
	profitTarget := pricing.Sub(sellTarget, in.CostPaid)

	maxCost := adjusted.Mul(decimal.NewFromFloat(MaxCostPercent))
	isProfitable := profit85 >= MinProfitThreshold
	isBelowMaxCost := decimal.NewFromFloat(in.CostPaid).LessThanOrEqual(maxCost)
	action := ActionPass
	if isProfitable && isBelowMaxCost {
		action = ActionBuy
	}

	return Result{
		Input: EchoedInput{
			MarketValue:         in.MarketValue,
			CostPaid:            in.CostPaid,
			Condition:           in.Condition,
			ConditionMultiplier: multiplier,
			SellPricePercent:    target,
		},
		Adjusted: Adjusted{MarketValue: adjusted.InexactFloat64()},
		Pricing: Pricing{
			SellPrice85:       sell85,
			SellPrice90:       sell90,
			GrossProfit85:     profit85,
			GrossProfit90:     profit90,
			ROI85:             pricing.Ratio(profit85, in.CostPaid),
			ROI90:             pricing.Ratio(profit90, in.CostPaid),
			TargetSellPrice:   sellTarget,
			TargetGrossProfit: profitTarget,
			TargetROI:         pricing.Ratio(profitTarget, in.CostPaid),
		},
		Recommendation: Recommendation{
			Action:             action,
			IsProfitable:       isProfitable,
			IsBelowMaxCost:     isBelowMaxCost,
			MinProfitThreshold: MinProfitThreshold,
			MaxCostPercent:     MaxCostPercent * 100,
		},
	}, nil
}

func sellPrice(adjusted decimal.Decimal, pct float64) float64 {
	return adjusted.Mul(decimal.NewFromFloat(pct)).Round(2).InexactFloat64()
}
