package cli

import (
	"github.com/spf13/cobra"
)

var (
	breakersProbe string
	breakersReset string
)

var breakersCmd = &cobra.Command{
	Use:   "breakers",
	Short: "Display or reset per-vendor circuit breakers",
	Long: `Display the in-process circuit breaker table.

Breaker state lives per process, so invoked standalone this shows a fresh
table; pass --probe to run one live vendor fan-out first and inspect its
effect on the breakers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if breakersReset != "" {
			return getApp().ResetBreaker(breakersReset)
		}
		return getApp().BreakerReport(cmd.Context(), breakersProbe)
	},
}

func init() {
	breakersCmd.Flags().StringVar(&breakersProbe, "probe", "", "SKU to fan out to vendors before reporting")
	breakersCmd.Flags().StringVar(&breakersReset, "reset", "", "Vendor ID whose breaker should be force-closed")
}
