package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ResolvedVariant is what the CSV importer needs to know about a matched row.
type ResolvedVariant struct {
	VariantID    int64
	ProductTitle string
	Available    int
}

func (r *Repository) ResolveVariantByID(ctx context.Context, storeID, variantID int64) (*ResolvedVariant, error) {
	query := `SELECT pv.id, p.title, pv.inventory_quantity
	          FROM product_variants pv
	          JOIN products p ON p.id = pv.product_id
	          WHERE pv.id = $1 AND p.store_id = $2`
	return r.resolveVariant(ctx, query, variantID, storeID)
}

func (r *Repository) ResolveVariantBySKU(ctx context.Context, storeID int64, sku string) (*ResolvedVariant, error) {
	query := `SELECT pv.id, p.title, pv.inventory_quantity
	          FROM product_variants pv
	          JOIN products p ON p.id = pv.product_id
	          WHERE pv.sku = $1 AND p.store_id = $2`
	return r.resolveVariant(ctx, query, sku, storeID)
}

func (r *Repository) ResolveVariantByBarcode(ctx context.Context, storeID int64, barcode string) (*ResolvedVariant, error) {
	query := `SELECT pv.id, p.title, pv.inventory_quantity
	          FROM product_variants pv
	          JOIN products p ON p.id = pv.product_id
	          WHERE pv.barcode = $1 AND p.store_id = $2`
	return r.resolveVariant(ctx, query, barcode, storeID)
}

// ResolveVariantByProductID falls back to the product's first variant by
// position, which is correct for single-variant products.
func (r *Repository) ResolveVariantByProductID(ctx context.Context, storeID, productID int64) (*ResolvedVariant, error) {
	query := `SELECT pv.id, p.title, pv.inventory_quantity
	          FROM product_variants pv
	          JOIN products p ON p.id = pv.product_id
	          WHERE p.id = $1 AND p.store_id = $2
	          ORDER BY pv.position ASC
	          LIMIT 1`
	return r.resolveVariant(ctx, query, productID, storeID)
}

func (r *Repository) resolveVariant(ctx context.Context, query string, args ...any) (*ResolvedVariant, error) {
	var v ResolvedVariant
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&v.VariantID, &v.ProductTitle, &v.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve variant: %w", err)
	}
	return &v, nil
}

// SetVariantQuantity writes the primary inventory quantity on the variant row.
func (r *Repository) SetVariantQuantity(ctx context.Context, variantID int64, quantity int) error {
	query := `UPDATE product_variants SET inventory_quantity = $1, updated_at = NOW() WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, quantity, variantID)
	if err != nil {
		return fmt.Errorf("update variant quantity: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrVariantNotFound
	}
	return nil
}

// UpsertVariantInventory maintains the committed/location tracking row and
// reports whether a new record was created.
func (r *Repository) UpsertVariantInventory(ctx context.Context, variantID int64, available int, committed *int, locationID *int64) (bool, error) {
	query := `INSERT INTO variant_inventory (variant_id, available, committed, location_id, created_at, updated_at)
	          VALUES ($1, $2, COALESCE($3, 0), $4, NOW(), NOW())
	          ON CONFLICT (variant_id)
	          DO UPDATE SET
	              available   = EXCLUDED.available,
	              committed   = COALESCE($3, variant_inventory.committed),
	              location_id = COALESCE($4, variant_inventory.location_id),
	              updated_at  = NOW()
	          RETURNING (xmax = 0)`

	var created bool
	err := r.db.QueryRowContext(ctx, query, variantID, available, committed, locationID).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert variant inventory: %w", err)
	}
	return created, nil
}

// InsertSystemLog appends one history row; context is a JSON document.
func (r *Repository) InsertSystemLog(ctx context.Context, storeID int64, level, source, message string, contextJSON []byte) error {
	query := `INSERT INTO system_logs (store_id, level, source, message, context, created_at)
	          VALUES ($1, $2, $3, $4, $5::jsonb, NOW())`

	_, err := r.db.ExecContext(ctx, query, storeID, level, source, message, contextJSON)
	if err != nil {
		return fmt.Errorf("insert system log: %w", err)
	}
	return nil
}

// EnqueueEvent writes an outbox row outside any pipeline transaction, for
// callers like the importer that work row-at-a-time.
func (r *Repository) EnqueueEvent(ctx context.Context, eventType, aggregateID string, payload []byte) error {
	query := `INSERT INTO outbox_events (event_type, aggregate_id, payload, created_at)
	          VALUES ($1, $2, $3, NOW())`

	_, err := r.db.ExecContext(ctx, query, eventType, aggregateID, payload)
	if err != nil {
		return fmt.Errorf("enqueue outbox event: %w", err)
	}
	return nil
}
