package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	refreshAll   bool
	refreshAsync bool
)

var refreshCmd = &cobra.Command{
	Use:   "refresh [sku]",
	Short: "Refresh persisted prices from live vendor data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if refreshAll {
			if len(args) > 0 {
				return fmt.Errorf("--all does not take a SKU argument")
			}
			summary, err := getApp().RefreshAll(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(summary)
		}

		if len(args) != 1 {
			return fmt.Errorf("exactly one SKU is required unless --all is set")
		}
		sku := args[0]

		if refreshAsync {
			enqueued, err := getApp().RefreshAsync(cmd.Context(), sku)
			if err != nil {
				return err
			}
			if !enqueued {
				return fmt.Errorf("refresh job for %s was not enqueued (broker unavailable)", sku)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "refresh job for %s enqueued\n", sku)
			return nil
		}

		result, err := getApp().Refresh(cmd.Context(), sku)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshAll, "all", false, "Refresh every known SKU")
	refreshCmd.Flags().BoolVar(&refreshAsync, "async", false, "Enqueue a refresh job instead of refreshing inline")
}
