package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"offerwatch/internal/storage"
)

// AddProduct seeds product metadata for a new SKU. Existing SKUs are left
// untouched.
func (a *App) AddProduct(ctx context.Context, sku, productID, name string) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot add products")
	}
	if closeStore != nil {
		defer closeStore()
	}

	if productID == "" {
		productID = sku
	}
	if name == "" {
		name = sku
	}

	if err := store.CreateProduct(ctx, storage.Product{SKU: sku, ProductID: productID, Name: name}); err != nil {
		return err
	}

	a.Logger.Info().Str("sku", sku).Msg("product registered")
	return nil
}

// Products prints every tracked product.
func (a *App) Products(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot list products")
	}
	if closeStore != nil {
		defer closeStore()
	}

	products, err := store.ListProducts(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Fprintln(os.Stdout, "no products found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "SKU\tName\tBest Price\tVendor\tAvailability\tRefreshed (UTC)")

	for _, p := range products {
		price := ""
		if p.Price.Valid {
			price = p.Price.Decimal.StringFixed(2)
		}
		vendorID := ""
		if p.Vendor != nil {
			vendorID = *p.Vendor
		}
		refreshed := ""
		if p.LastPriceRefreshedAt != nil {
			refreshed = p.LastPriceRefreshedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.SKU, p.Name, price, vendorID, p.Availability, refreshed)
	}

	writer.Flush()
	return nil
}
