package app

import (
	"context"

	"offerwatch/internal/offer"
	"offerwatch/internal/refresh"
)

// View returns the cached-or-live product view for one SKU.
func (a *App) View(ctx context.Context, sku string) (refresh.View, error) {
	p, err := a.buildPipeline(ctx)
	if err != nil {
		return refresh.View{}, err
	}
	defer p.close()

	return p.coordinator.ProductView(ctx, sku)
}

// Offers fans out to every vendor and returns the live normalized offers,
// bypassing cache and persistence of a merged result. Vendor calls are still
// audited.
func (a *App) Offers(ctx context.Context, sku string) ([]offer.Offer, error) {
	p, err := a.buildPipeline(ctx)
	if err != nil {
		return nil, err
	}
	defer p.close()

	return p.aggregator.AllOffers(ctx, sku), nil
}
