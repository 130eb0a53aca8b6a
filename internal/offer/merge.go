package offer

import "github.com/shopspring/decimal"

var (
	bandLow  = decimal.NewFromFloat(0.9)
	bandHigh = decimal.NewFromFloat(1.1)
)

// MergeBest selects the best offer from a set of normalized offers.
//
// Selection is deterministic for a fixed input set:
//  1. keep offers with a price and a non-empty availability,
//  2. drop offers priced outside ±10% of the mean, unless that would
//     drop every candidate,
//  3. prefer in-stock offers when any remain,
//  4. take the cheapest, first-seen order breaking ties.
//
// Returns nil when no offer carries a price.
func MergeBest(offers []Offer) *Offer {
	valid := make([]Offer, 0, len(offers))
	for _, o := range offers {
		if o.Priced() && o.Availability != "" {
			valid = append(valid, o)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	mean := meanPrice(valid)

	low := mean.Mul(bandLow)
	high := mean.Mul(bandHigh)
	banded := make([]Offer, 0, len(valid))
	for _, o := range valid {
		p := o.Price.Decimal
		if p.GreaterThanOrEqual(low) && p.LessThanOrEqual(high) {
			banded = append(banded, o)
		}
	}
	// The anomaly filter must never eliminate every candidate.
	if len(banded) == 0 {
		banded = valid
	}

	pool := banded
	inStock := make([]Offer, 0, len(banded))
	for _, o := range banded {
		if o.Availability == InStock {
			inStock = append(inStock, o)
		}
	}
	if len(inStock) > 0 {
		pool = inStock
	}

	best := pool[0]
	for _, o := range pool[1:] {
		if o.Price.Decimal.LessThan(best.Price.Decimal) {
			best = o
		}
	}
	return &best
}

func meanPrice(offers []Offer) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range offers {
		sum = sum.Add(o.Price.Decimal)
	}
	return sum.Div(decimal.NewFromInt(int64(len(offers))))
}
