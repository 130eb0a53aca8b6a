package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// Show prints recent vendor call logs for one SKU.
func (a *App) Show(ctx context.Context, sku string, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show vendor calls")
	}
	if closeStore != nil {
		defer closeStore()
	}

	calls, err := store.ListVendorCalls(ctx, sku, opts.Limit)
	if err != nil {
		return err
	}
	if len(calls) == 0 {
		fmt.Fprintln(os.Stdout, "no vendor calls found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tVendor\tOK\tLatency(ms)\tPrice\tAvailability\tError")

	for _, call := range calls {
		price := ""
		if call.Price.Valid {
			price = call.Price.Decimal.StringFixed(2)
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%t\t%d\t%s\t%s\t%s\n",
			call.CreatedAt.UTC().Format(time.RFC3339),
			call.Vendor,
			call.Success,
			call.LatencyMS,
			price,
			call.Availability,
			sanitizeInline(call.ErrorMessage),
		)
	}

	writer.Flush()
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
