package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/matthewgall/pricer/internal/models"
	"github.com/matthewgall/pricer/internal/roi"
)

var roiInput struct {
	market    float64
	cost      float64
	condition string
	percent   float64
}

var roiCmd = &cobra.Command{
	Use:   "roi --market <value> --cost <paid> [--condition <grade>] [--percent <0-1>]",
	Short: "Works out resale margins and a buy/pass recommendation.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		condition := models.Condition(roiInput.condition)
		if condition != "" && !condition.Valid() {
			slog.Warn("unknown condition, market value is not adjusted", "condition", condition)
		}
		result, err := roi.CalculateROI(roi.Input{
			MarketValue:      roiInput.market,
			CostPaid:         roiInput.cost,
			Condition:        condition,
			SellPricePercent: roiInput.percent,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	roiCmd.Flags().Float64Var(&roiInput.market, "market", 0, "Market value of the item.")
	roiCmd.Flags().Float64Var(&roiInput.cost, "cost", 0, "Price paid for the item.")
	roiCmd.Flags().StringVar(&roiInput.condition, "condition", "", "Condition grade (like-new, excellent, good, acceptable).")
	roiCmd.Flags().Float64Var(&roiInput.percent, "percent", roi.DefaultSellPricePercent, "Target sell price as a fraction of adjusted value.")
	rootCmd.AddCommand(roiCmd)
}
