package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"offerwatch/internal/storage"
)

// Export renders a SKU's vendor price history as CSV and/or PNG, one series
// per vendor, sourced from the audit log.
func (a *App) Export(ctx context.Context, sku string, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-time.Duration(opts.MaxPoints) * a.Config.Scheduler.Interval)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	calls, err := store.ListVendorCallsBetween(ctx, sku, from, to)
	if err != nil {
		return err
	}

	priced := make([]storage.VendorCall, 0, len(calls))
	for _, call := range calls {
		if call.Success && call.Price.Valid {
			priced = append(priced, call)
		}
	}
	if len(priced) == 0 {
		a.Logger.Info().Str("sku", sku).Msg("no priced vendor calls found for export window")
		return nil
	}

	downsampled := downsampleCalls(priced, opts.MaxPoints)
	a.Logger.Info().Str("sku", sku).
		Int("total", len(priced)).
		Int("exported", len(downsampled)).
		Msg("exporting vendor price history")

	if opts.CSVPath != "" {
		if err := writeCallsCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeCallsPNG(opts.PNGPath, sku, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleCalls(calls []storage.VendorCall, max int) []storage.VendorCall {
	if max <= 0 || len(calls) <= max {
		return calls
	}

	result := make([]storage.VendorCall, 0, max)
	step := float64(len(calls)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(calls) {
			idx = len(calls) - 1
		}
		result = append(result, calls[idx])
	}
	return result
}

func writeCallsCSV(path string, calls []storage.VendorCall) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"ts", "sku", "vendor", "price", "availability", "latency_ms"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, call := range calls {
		record := []string{
			call.CreatedAt.UTC().Format(time.RFC3339),
			call.SKU,
			call.Vendor,
			call.Price.Decimal.String(),
			call.Availability,
			formatInt(call.LatencyMS),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeCallsPNG(path, sku string, calls []storage.VendorCall) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	byVendor := make(map[string][]storage.VendorCall)
	for _, call := range calls {
		byVendor[call.Vendor] = append(byVendor[call.Vendor], call)
	}

	vendors := make([]string, 0, len(byVendor))
	for id := range byVendor {
		vendors = append(vendors, id)
	}
	sort.Strings(vendors)

	series := make([]chart.Series, 0, len(vendors))
	for _, id := range vendors {
		points := byVendor[id]
		x := make([]time.Time, len(points))
		y := make([]float64, len(points))
		for i, call := range points {
			x[i] = call.CreatedAt
			y[i] = call.Price.Decimal.InexactFloat64()
		}
		series = append(series, chart.TimeSeries{
			Name:    id,
			XValues: x,
			YValues: y,
		})
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Title:  "Vendor prices: " + sku,
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Price",
			ValueFormatter: priceFormatter,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
