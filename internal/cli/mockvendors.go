package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"offerwatch/internal/mockvendor"
)

var (
	mockAddr        string
	mockDelay       time.Duration
	mockFailureRate float64
)

var mockVendorsCmd = &cobra.Command{
	Use:   "mock-vendors",
	Short: "Serve fake vendor endpoints for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		srv := mockvendor.New(mockvendor.Options{
			Addr:            mockAddr,
			SlowVendorDelay: mockDelay,
			FailureRate:     mockFailureRate,
		}, getApp().Logger)

		err := srv.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	mockVendorsCmd.Flags().StringVar(&mockAddr, "addr", ":3000", "Listen address")
	mockVendorsCmd.Flags().DurationVar(&mockDelay, "delay", 500*time.Millisecond, "Artificial delay on the slow vendor")
	mockVendorsCmd.Flags().Float64Var(&mockFailureRate, "failure-rate", 0, "Probability in [0,1] of a simulated 500 per request")
}
