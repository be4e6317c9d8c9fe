package commands

import (
	"github.com/spf13/cobra"

	"github.com/matthewgall/pricer/internal/platforms"
)

var platformsAll bool

var platformsCmd = &cobra.Command{
	Use:   "platforms [--all]",
	Short: "Lists the supported platform codes.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list := platforms.Searchable()
		if platformsAll {
			list = platforms.List()
		}
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{"platforms": list})
	},
}

func init() {
	platformsCmd.Flags().BoolVar(&platformsAll, "all", false, "Include display-only codes.")
	rootCmd.AddCommand(platformsCmd)
}
