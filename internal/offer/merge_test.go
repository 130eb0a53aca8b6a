package offer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func priced(vendor string, price float64, avail Availability) Offer {
	return Offer{
		Vendor:       vendor,
		Price:        decimal.NewNullDecimal(decimal.NewFromFloat(price)),
		Stock:        5,
		Availability: avail,
		ObservedAt:   time.Now(),
	}
}

func unpriced(vendor string, avail Availability) Offer {
	return Offer{Vendor: vendor, Availability: avail, ObservedAt: time.Now()}
}

func TestMergeBestEmpty(t *testing.T) {
	if best := MergeBest(nil); best != nil {
		t.Fatalf("expected nil for empty input, got %+v", best)
	}
	if best := MergeBest([]Offer{unpriced("a", InStock), unpriced("b", OutOfStock)}); best != nil {
		t.Fatalf("expected nil when no offer is priced, got %+v", best)
	}
}

func TestMergeBestTightCluster(t *testing.T) {
	// mean=105, band=[94.5,115.5], all retained, cheapest wins.
	offers := []Offer{
		priced("a", 100, InStock),
		priced("b", 105, InStock),
		priced("c", 110, InStock),
	}
	best := MergeBest(offers)
	if best == nil {
		t.Fatal("expected a winner")
	}
	if best.Vendor != "a" || !best.Price.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected vendor a at 100, got %s at %s", best.Vendor, best.Price.Decimal)
	}
}

func TestMergeBestBandFallback(t *testing.T) {
	// mean=2525, band=[2272.5,2777.5] excludes both offers; the filter
	// reverts to the full valid set and the cheapest in-stock offer wins.
	offers := []Offer{
		priced("b", 50, InStock),
		priced("c", 5000, InStock),
	}
	best := MergeBest(offers)
	if best == nil {
		t.Fatal("expected a winner")
	}
	if best.Vendor != "b" || !best.Price.Decimal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected vendor b at 50, got %s at %s", best.Vendor, best.Price.Decimal)
	}
}

func TestMergeBestAnomalyExcluded(t *testing.T) {
	// mean=110, band=[99,121]: the outlier at 150 is dropped before the
	// in-stock preference runs, so it cannot win despite being the only
	// in-stock offer.
	offers := []Offer{
		priced("a", 100, OutOfStock),
		priced("b", 101, OutOfStock),
		priced("c", 102, OutOfStock),
		priced("d", 103, OutOfStock),
		priced("e", 104, OutOfStock),
		priced("f", 150, InStock),
	}
	best := MergeBest(offers)
	if best == nil {
		t.Fatal("expected a winner")
	}
	if best.Vendor != "a" {
		t.Fatalf("expected cheapest in-band offer a, got %s", best.Vendor)
	}
}

func TestMergeBestPrefersInStock(t *testing.T) {
	offers := []Offer{
		priced("a", 90, OutOfStock),
		priced("b", 100, InStock),
	}
	best := MergeBest(offers)
	if best == nil {
		t.Fatal("expected a winner")
	}
	if best.Vendor != "b" {
		t.Fatalf("in-stock offer should beat a cheaper out-of-stock one, got %s", best.Vendor)
	}
}

func TestMergeBestFirstSeenTiebreak(t *testing.T) {
	offers := []Offer{
		priced("a", 100, InStock),
		priced("b", 100, InStock),
	}
	best := MergeBest(offers)
	if best == nil || best.Vendor != "a" {
		t.Fatalf("tie should resolve to first-seen offer, got %+v", best)
	}
}

func TestMergeBestSingleOffer(t *testing.T) {
	// A lone valid offer trivially survives every filter stage.
	offers := []Offer{priced("solo", 42, OutOfStock)}
	best := MergeBest(offers)
	if best == nil || best.Vendor != "solo" {
		t.Fatalf("single valid offer should win, got %+v", best)
	}
}

func TestMergeBestWinnerWithinBounds(t *testing.T) {
	offers := []Offer{
		priced("a", 10, InStock),
		priced("b", 11, InStock),
		priced("c", 12, InStock),
		priced("d", 9, InStock),
		unpriced("e", InStock),
	}
	best := MergeBest(offers)
	if best == nil {
		t.Fatal("expected a winner")
	}
	min, max := decimal.NewFromInt(9), decimal.NewFromInt(12)
	if best.Price.Decimal.LessThan(min) || best.Price.Decimal.GreaterThan(max) {
		t.Fatalf("winner price %s outside candidate bounds", best.Price.Decimal)
	}
}
