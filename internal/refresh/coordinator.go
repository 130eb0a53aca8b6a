package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"offerwatch/internal/alerting"
	"offerwatch/internal/cache"
	"offerwatch/internal/offer"
	"offerwatch/internal/storage"
)

// ErrNoVendorData indicates every vendor call failed during a refresh. It is
// distinct from "vendors responded but none had a price", which produces an
// Unavailable sentinel result instead of an error.
var ErrNoVendorData = errors.New("refresh: no vendor returned data")

const (
	// SourceCache tags a product view served from the cache.
	SourceCache = "HIT"
	// SourceLive tags a product view assembled from live vendor data.
	SourceLive = "MISS"

	availabilityUnavailable = "Unavailable"
)

// OfferSource yields normalized offers for a SKU. The vendor aggregator is
// the production implementation.
type OfferSource interface {
	AllOffers(ctx context.Context, sku string) []offer.Offer
}

// ProductMeta is the cached subset of product metadata.
type ProductMeta struct {
	SKU       string `json:"sku"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
}

// View is the cached product view returned to read paths.
type View struct {
	SKU        string        `json:"sku"`
	Product    ProductMeta   `json:"product"`
	Offers     []offer.Offer `json:"offers"`
	BestOffer  *offer.Offer  `json:"best_offer"`
	CachedAt   time.Time     `json:"cached_at"`
	TTLSeconds int           `json:"ttl_seconds"`
	Source     string        `json:"source,omitempty"`
}

// Result is the outcome of one synchronous refresh.
type Result struct {
	SKU          string              `json:"sku"`
	Price        decimal.NullDecimal `json:"price"`
	Vendor       *string             `json:"vendor"`
	Availability string              `json:"availability"`
	Offers       []offer.Offer       `json:"offers"`
}

// SKUResult is one entry of a bulk refresh summary.
type SKUResult struct {
	SKU   string `json:"sku"`
	Error string `json:"error,omitempty"`

	Price  decimal.NullDecimal `json:"price"`
	Vendor *string             `json:"vendor,omitempty"`
}

// Summary aggregates a bulk refresh run.
type Summary struct {
	Total   int         `json:"total"`
	Failed  int         `json:"failed"`
	Results []SKUResult `json:"results"`
}

// Coordinator orchestrates cache, store, vendor fan-out, and merge for
// product reads and refreshes.
type Coordinator struct {
	products  storage.ProductStore
	offers    OfferSource
	cache     *cache.Store
	notifier  alerting.Notifier
	threshold decimal.Decimal
	logger    zerolog.Logger
	now       func() time.Time
}

// CoordinatorOptions tune refresh behaviour.
type CoordinatorOptions struct {
	// Notifier receives price-move alerts; nil disables alerting.
	Notifier alerting.Notifier
	// AlertThresholdPct is the minimum absolute best-price change, in
	// percent, that triggers a notification.
	AlertThresholdPct float64
}

// NewCoordinator wires a Coordinator.
func NewCoordinator(products storage.ProductStore, offers OfferSource, viewCache *cache.Store, opts CoordinatorOptions, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		products:  products,
		offers:    offers,
		cache:     viewCache,
		notifier:  opts.Notifier,
		threshold: decimal.NewFromFloat(opts.AlertThresholdPct),
		logger:    logger.With().Str("component", "refresh_coordinator").Logger(),
		now:       time.Now,
	}
}

// ProductView returns the product view for a SKU, serving from cache when
// possible. Cache misses assemble a live view and cache it.
func (c *Coordinator) ProductView(ctx context.Context, sku string) (View, error) {
	if payload, ok, _ := c.cache.Get(ctx, sku); ok {
		var view View
		if err := json.Unmarshal(payload, &view); err == nil {
			view.Source = SourceCache
			return view, nil
		}
		// A corrupt entry is treated as a miss and overwritten below.
		c.logger.Warn().Str("sku", sku).Msg("discarding unreadable cache entry")
	}

	product, err := c.products.GetBySKU(ctx, sku)
	if err != nil {
		return View{}, err
	}

	offers := c.offers.AllOffers(ctx, sku)
	now := c.now()

	view := View{
		SKU:        sku,
		Product:    ProductMeta{SKU: product.SKU, ProductID: product.ProductID, Name: product.Name},
		Offers:     offers,
		CachedAt:   now,
		TTLSeconds: int(c.cache.TTL() / time.Second),
	}

	if len(offers) == 0 {
		view.BestOffer = &offer.Offer{Availability: offer.OutOfStock, ObservedAt: now}
	} else {
		view.BestOffer = offer.MergeBest(offers)
	}

	c.cacheView(ctx, sku, view)
	view.Source = SourceLive
	return view, nil
}

// RefreshProduct bypasses the cache, fans out to every vendor, persists the
// cheapest priced offer (or an Unavailable sentinel), and invalidates the
// cached view.
func (c *Coordinator) RefreshProduct(ctx context.Context, sku string) (Result, error) {
	product, err := c.products.GetBySKU(ctx, sku)
	if err != nil {
		return Result{}, err
	}

	offers := c.offers.AllOffers(ctx, sku)
	if len(offers) == 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrNoVendorData, sku)
	}

	result := Result{SKU: sku, Availability: availabilityUnavailable, Offers: offers}
	if chosen := cheapestPriced(offers); chosen != nil {
		result.Price = chosen.Price
		vendorID := chosen.Vendor
		result.Vendor = &vendorID
		result.Availability = string(chosen.Availability)
	}

	rawOffers, err := json.Marshal(offers)
	if err != nil {
		return Result{}, fmt.Errorf("marshal offers: %w", err)
	}

	refreshedAt := c.now()
	if err := c.products.UpsertRefreshResult(ctx, storage.RefreshResult{
		SKU:          sku,
		Price:        result.Price,
		Vendor:       result.Vendor,
		Availability: result.Availability,
		RawOffers:    rawOffers,
		RefreshedAt:  refreshedAt,
	}); err != nil {
		return Result{}, err
	}

	c.cache.Delete(ctx, sku)
	c.maybeAlert(ctx, product, result, refreshedAt)

	c.logger.Info().Str("sku", sku).
		Int("offers", len(offers)).
		Str("availability", result.Availability).
		Msg("product refreshed")
	return result, nil
}

// RefreshAll refreshes every known SKU sequentially. The serial loop is a
// deliberate throttle on aggregate vendor load; per-SKU vendor fan-out
// inside each call stays concurrent. One SKU's failure never aborts the
// rest.
func (c *Coordinator) RefreshAll(ctx context.Context) (Summary, error) {
	skus, err := c.products.ListSKUs(ctx)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Total: len(skus), Results: make([]SKUResult, 0, len(skus))}
	for _, sku := range skus {
		result, refreshErr := c.RefreshProduct(ctx, sku)
		entry := SKUResult{SKU: sku}
		if refreshErr != nil {
			entry.Error = refreshErr.Error()
			summary.Failed++
			c.logger.Error().Err(refreshErr).Str("sku", sku).Msg("bulk refresh: sku failed")
		} else {
			entry.Price = result.Price
			entry.Vendor = result.Vendor
		}
		summary.Results = append(summary.Results, entry)
	}
	return summary, nil
}

func (c *Coordinator) cacheView(ctx context.Context, sku string, view View) {
	payload, err := json.Marshal(view)
	if err != nil {
		c.logger.Error().Err(err).Str("sku", sku).Msg("failed to marshal view for cache")
		return
	}
	c.cache.Set(ctx, sku, payload, 0)
}

// cheapestPriced returns the minimum-priced offer among those carrying a
// price, first-seen order breaking ties. Unlike MergeBest this applies no
// anomaly band or stock preference; refresh persists the raw floor price.
func cheapestPriced(offers []offer.Offer) *offer.Offer {
	var best *offer.Offer
	for i := range offers {
		if !offers[i].Priced() {
			continue
		}
		if best == nil || offers[i].Price.Decimal.LessThan(best.Price.Decimal) {
			best = &offers[i]
		}
	}
	return best
}

func (c *Coordinator) maybeAlert(ctx context.Context, before storage.Product, result Result, refreshedAt time.Time) {
	if c.notifier == nil || c.threshold.IsZero() {
		return
	}
	if !before.Price.Valid || !result.Price.Valid || before.Price.Decimal.IsZero() {
		return
	}

	oldPrice := before.Price.Decimal
	newPrice := result.Price.Decimal
	changePct := newPrice.Sub(oldPrice).Div(oldPrice).Mul(decimal.NewFromInt(100))
	if changePct.Abs().LessThanOrEqual(c.threshold) {
		return
	}

	vendorID := ""
	if result.Vendor != nil {
		vendorID = *result.Vendor
	}
	note := alerting.Notification{
		SKU:         result.SKU,
		OldPrice:    oldPrice,
		NewPrice:    newPrice,
		ChangePct:   changePct,
		Vendor:      vendorID,
		RefreshedAt: refreshedAt,
	}
	if err := c.notifier.Notify(ctx, note); err != nil {
		c.logger.Error().Err(err).Str("sku", result.SKU).Msg("failed to dispatch price alert")
	}
}
