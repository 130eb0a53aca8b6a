package offer

import (
	"time"

	"github.com/shopspring/decimal"
)

// Availability describes a vendor's stock signal for a SKU.
type Availability string

const (
	InStock    Availability = "IN_STOCK"
	OutOfStock Availability = "OUT_OF_STOCK"
	Unknown    Availability = "UNKNOWN"
)

// Offer is one vendor's normalized price/availability quote for a SKU.
// Adapters are the only producers; an Offer is never mutated after creation.
type Offer struct {
	Vendor       string               `json:"vendor"`
	Price        decimal.NullDecimal  `json:"price"`
	Stock        int                  `json:"stock"`
	Availability Availability         `json:"availability"`
	ObservedAt   time.Time            `json:"observed_at"`
}

// Priced reports whether the offer carries a usable price.
func (o Offer) Priced() bool {
	return o.Price.Valid
}

// AvailabilityFromStock derives the enum from a stock count.
func AvailabilityFromStock(stock int) Availability {
	if stock > 0 {
		return InStock
	}
	return OutOfStock
}
