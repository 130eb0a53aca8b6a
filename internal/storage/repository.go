package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"offerwatch/internal/vendor"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrProductNotFound indicates no product row exists for the SKU.
	ErrProductNotFound = errors.New("storage: product not found")
)

const (
	getProductBySKUSQL = `SELECT
        sku,
        product_id,
        name,
        vendor,
        price,
        availability,
        raw_offers,
        last_price_refreshed_at,
        created_at,
        updated_at
    FROM products
    WHERE sku = $1;`

	listProductsSQL = `SELECT
        sku,
        product_id,
        name,
        vendor,
        price,
        availability,
        raw_offers,
        last_price_refreshed_at,
        created_at,
        updated_at
    FROM products
    ORDER BY sku;`

	listSKUsSQL = `SELECT sku FROM products ORDER BY sku;`

	createProductSQL = `INSERT INTO products (
        sku,
        product_id,
        name,
        availability
    ) VALUES (
        $1,$2,$3,$4
    )
    ON CONFLICT (sku) DO NOTHING;`

	upsertRefreshResultSQL = `UPDATE products
    SET price = $2,
        vendor = $3,
        availability = $4,
        raw_offers = $5,
        last_price_refreshed_at = $6,
        updated_at = NOW()
    WHERE sku = $1;`

	insertVendorCallSQL = `INSERT INTO vendor_call_logs (
        sku,
        vendor,
        success,
        latency_ms,
        price,
        availability,
        error_message,
        created_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    );`

	listVendorCallsSQL = `SELECT
        id,
        sku,
        vendor,
        success,
        latency_ms,
        price,
        availability,
        error_message,
        created_at
    FROM vendor_call_logs
    WHERE sku = $1
    ORDER BY created_at DESC
    LIMIT $2;`

	listVendorCallsBetweenSQL = `SELECT
        id,
        sku,
        vendor,
        success,
        latency_ms,
        price,
        availability,
        error_message,
        created_at
    FROM vendor_call_logs
    WHERE sku = $1
      AND created_at >= $2
      AND created_at < $3
    ORDER BY created_at;`
)

// ProductStore defines product metadata and refresh-result persistence.
type ProductStore interface {
	GetBySKU(ctx context.Context, sku string) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	ListSKUs(ctx context.Context) ([]string, error)
	CreateProduct(ctx context.Context, p Product) error
	UpsertRefreshResult(ctx context.Context, result RefreshResult) error
}

// AuditStore defines the append-only vendor call log.
type AuditStore interface {
	InsertVendorCall(ctx context.Context, call VendorCall) error
	ListVendorCalls(ctx context.Context, sku string, limit int) ([]VendorCall, error)
	ListVendorCallsBetween(ctx context.Context, sku string, from, to time.Time) ([]VendorCall, error)
}

// Store aggregates access to products and vendor call logs.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// GetBySKU loads one product row.
func (s *Store) GetBySKU(ctx context.Context, sku string) (Product, error) {
	pool, err := s.getPool()
	if err != nil {
		return Product{}, err
	}

	p, scanErr := scanProduct(pool.QueryRow(ctx, getProductBySKUSQL, sku))
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, sku)
		}
		return Product{}, fmt.Errorf("get product by sku: %w", scanErr)
	}
	return p, nil
}

// ListProducts returns every product row ordered by SKU.
func (s *Store) ListProducts(ctx context.Context) ([]Product, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listProductsSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list products: %w", queryErr)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, scanErr := scanProduct(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan product: %w", scanErr)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ListSKUs returns every known SKU.
func (s *Store) ListSKUs(ctx context.Context) ([]string, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSKUsSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list skus: %w", queryErr)
	}
	defer rows.Close()

	skus := make([]string, 0)
	for rows.Next() {
		var sku string
		if scanErr := rows.Scan(&sku); scanErr != nil {
			return nil, fmt.Errorf("scan sku: %w", scanErr)
		}
		skus = append(skus, sku)
	}
	return skus, rows.Err()
}

// CreateProduct inserts product metadata; existing SKUs are left untouched.
func (s *Store) CreateProduct(ctx context.Context, p Product) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	availability := p.Availability
	if availability == "" {
		availability = "UNKNOWN"
	}

	if _, execErr := pool.Exec(ctx, createProductSQL, p.SKU, p.ProductID, p.Name, availability); execErr != nil {
		return fmt.Errorf("create product: %w", execErr)
	}
	return nil
}

// UpsertRefreshResult overwrites the refresh outcome for one SKU.
func (s *Store) UpsertRefreshResult(ctx context.Context, result RefreshResult) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var price interface{}
	if result.Price.Valid {
		price = result.Price.Decimal.String()
	}
	var vendorID interface{}
	if result.Vendor != nil {
		vendorID = *result.Vendor
	}

	tag, execErr := pool.Exec(ctx, upsertRefreshResultSQL,
		result.SKU,
		price,
		vendorID,
		result.Availability,
		[]byte(result.RawOffers),
		result.RefreshedAt,
	)
	if execErr != nil {
		return fmt.Errorf("upsert refresh result: %w", execErr)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, result.SKU)
	}
	return nil
}

// InsertVendorCall appends one audit row.
func (s *Store) InsertVendorCall(ctx context.Context, call VendorCall) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var price interface{}
	if call.Price.Valid {
		price = call.Price.Decimal.String()
	}

	createdAt := call.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, execErr := pool.Exec(ctx, insertVendorCallSQL,
		call.SKU,
		call.Vendor,
		call.Success,
		call.LatencyMS,
		price,
		call.Availability,
		call.ErrorMessage,
		createdAt,
	)
	if execErr != nil {
		return fmt.Errorf("insert vendor call: %w", execErr)
	}
	return nil
}

// ListVendorCalls returns the most recent audit rows for a SKU.
func (s *Store) ListVendorCalls(ctx context.Context, sku string, limit int) ([]VendorCall, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, queryErr := pool.Query(ctx, listVendorCallsSQL, sku, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list vendor calls: %w", queryErr)
	}
	defer rows.Close()

	return collectVendorCalls(rows)
}

// ListVendorCallsBetween returns audit rows for a SKU within a time window.
func (s *Store) ListVendorCallsBetween(ctx context.Context, sku string, from, to time.Time) ([]VendorCall, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listVendorCallsBetweenSQL, sku, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list vendor calls between: %w", queryErr)
	}
	defer rows.Close()

	return collectVendorCalls(rows)
}

// Record satisfies vendor.AuditSink so the aggregator can append directly.
func (s *Store) Record(ctx context.Context, rec vendor.CallRecord) error {
	return s.InsertVendorCall(ctx, VendorCall{
		SKU:          rec.SKU,
		Vendor:       rec.Vendor,
		Success:      rec.Success,
		LatencyMS:    rec.LatencyMS,
		Price:        rec.Price,
		Availability: string(rec.Availability),
		ErrorMessage: rec.ErrorMessage,
		CreatedAt:    rec.At,
	})
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(
		&p.SKU,
		&p.ProductID,
		&p.Name,
		&p.Vendor,
		&p.Price,
		&p.Availability,
		&p.RawOffers,
		&p.LastPriceRefreshedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func collectVendorCalls(rows pgx.Rows) ([]VendorCall, error) {
	calls := make([]VendorCall, 0)
	for rows.Next() {
		var c VendorCall
		if err := rows.Scan(
			&c.ID,
			&c.SKU,
			&c.Vendor,
			&c.Success,
			&c.LatencyMS,
			&c.Price,
			&c.Availability,
			&c.ErrorMessage,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan vendor call: %w", err)
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

var (
	_ ProductStore     = (*Store)(nil)
	_ AuditStore       = (*Store)(nil)
	_ vendor.AuditSink = (*Store)(nil)
)
