package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

var lookupPlatform string

var lookupCmd = &cobra.Command{
	Use:   "lookup <query> [--platform <code>]",
	Short: "Looks up the aggregated resale price for a game.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pipeline, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer pipeline.Close()

		result := pipeline.Prices.GetOrCompute(cmd.Context(), strings.Join(args, " "), lookupPlatform)
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	lookupCmd.Flags().StringVarP(&lookupPlatform, "platform", "p", "", "Platform code, e.g. SNES.")
	rootCmd.AddCommand(lookupCmd)
}
