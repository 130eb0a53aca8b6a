package storage

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Product is the persisted product row plus its last refresh result.
type Product struct {
	SKU                  string
	ProductID            string
	Name                 string
	Vendor               *string
	Price                decimal.NullDecimal
	Availability         string
	RawOffers            json.RawMessage
	LastPriceRefreshedAt *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// VendorCall is one append-only audit row, recorded per vendor attempt per
// aggregation call.
type VendorCall struct {
	ID           int64
	SKU          string
	Vendor       string
	Success      bool
	LatencyMS    int64
	Price        decimal.NullDecimal
	Availability string
	ErrorMessage string
	CreatedAt    time.Time
}

// RefreshResult captures what a refresh decided for one SKU.
type RefreshResult struct {
	SKU          string
	Price        decimal.NullDecimal
	Vendor       *string
	Availability string
	RawOffers    json.RawMessage
	RefreshedAt  time.Time
}
