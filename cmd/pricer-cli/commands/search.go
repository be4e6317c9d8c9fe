package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

var searchPlatform string

var searchCmd = &cobra.Command{
	Use:   "search <q> [--platform <code>]",
	Short: "Lists catalog titles matching a partial query.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pipeline, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer pipeline.Close()

		suggestions := pipeline.Catalog.SearchCatalog(cmd.Context(), strings.Join(args, " "), searchPlatform)
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{"suggestions": suggestions})
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchPlatform, "platform", "p", "", "Platform code, e.g. N64.")
	rootCmd.AddCommand(searchCmd)
}
