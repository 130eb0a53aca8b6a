package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"offerwatch/internal/vendor"
)

// BreakerReport prints the in-process breaker table. Breaker state lives per
// process, so when probeSKU is set a live fan-out runs first and the table
// reflects its outcome.
func (a *App) BreakerReport(ctx context.Context, probeSKU string) error {
	if probeSKU != "" {
		if _, err := a.Offers(ctx, probeSKU); err != nil {
			return err
		}
	} else {
		// Materialize one breaker per configured vendor so the table is
		// populated even before any call ran.
		for _, v := range a.Config.Vendors {
			a.Breakers.For(v.ID)
		}
	}

	statuses := a.Breakers.Snapshot()
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Vendor\tState\tFailures\tOpen Until (UTC)")
	for _, status := range statuses {
		openUntil := ""
		if status.State == vendor.StateOpen {
			openUntil = status.OpenUntil.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(writer, "%s\t%s\t%d\t%s\n", status.Vendor, status.State, status.Failures, openUntil)
	}
	writer.Flush()
	return nil
}

// ResetBreaker force-closes one vendor's breaker.
func (a *App) ResetBreaker(vendorID string) error {
	if !a.Breakers.Reset(vendorID) {
		return fmt.Errorf("unknown vendor %q", vendorID)
	}
	fmt.Fprintf(os.Stdout, "breaker for %s reset\n", vendorID)
	return nil
}
