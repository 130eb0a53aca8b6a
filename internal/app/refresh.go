package app

import (
	"context"

	"offerwatch/internal/refresh"
)

// Refresh performs one synchronous product refresh.
func (a *App) Refresh(ctx context.Context, sku string) (refresh.Result, error) {
	p, err := a.buildPipeline(ctx)
	if err != nil {
		return refresh.Result{}, err
	}
	defer p.close()

	return p.coordinator.RefreshProduct(ctx, sku)
}

// RefreshAll refreshes every known SKU and reports a per-SKU summary.
func (a *App) RefreshAll(ctx context.Context) (refresh.Summary, error) {
	p, err := a.buildPipeline(ctx)
	if err != nil {
		return refresh.Summary{}, err
	}
	defer p.close()

	return p.coordinator.RefreshAll(ctx)
}

// RefreshAsync enqueues a refresh job for a worker to pick up. The returned
// flag reports whether the job actually reached the broker.
func (a *App) RefreshAsync(ctx context.Context, sku string) (bool, error) {
	p, err := a.buildPipeline(ctx)
	if err != nil {
		return false, err
	}
	defer p.close()

	return p.queue.Enqueue(ctx, sku), nil
}
