package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/itadmit/quickshop3-sub006/internal/domain"
)

// ListActiveProducts loads every active product of a store with its images
// and variants, ordered the way the feeds expect (images and variants by
// position).
func (r *Repository) ListActiveProducts(ctx context.Context, storeID int64) ([]domain.Product, error) {
	query := `SELECT id, store_id, title, COALESCE(description, ''), handle,
	                 COALESCE(vendor, ''), COALESCE(product_type, ''), status,
	                 COALESCE(tags, ''), created_at, updated_at
	          FROM products
	          WHERE store_id = $1 AND status = 'active'
	          ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	var ids []int64
	index := make(map[int64]int)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.StoreID,
			&p.Title,
			&p.Description,
			&p.Handle,
			&p.Vendor,
			&p.ProductType,
			&p.Status,
			&p.Tags,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		index[p.ID] = len(products)
		ids = append(ids, p.ID)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	if len(products) == 0 {
		return nil, nil
	}

	if err := r.attachImages(ctx, ids, index, products); err != nil {
		return nil, err
	}
	if err := r.attachVariants(ctx, ids, index, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *Repository) attachImages(ctx context.Context, ids []int64, index map[int64]int, products []domain.Product) error {
	query := `SELECT product_id, id, src, COALESCE(alt, ''), position
	          FROM product_images
	          WHERE product_id = ANY($1)
	          ORDER BY product_id, position`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query product images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID int64
		var img domain.ProductImage
		if err := rows.Scan(&productID, &img.ID, &img.Src, &img.Alt, &img.Position); err != nil {
			return fmt.Errorf("scan image row: %w", err)
		}
		i := index[productID]
		products[i].Images = append(products[i].Images, img)
	}
	return rows.Err()
}

func (r *Repository) attachVariants(ctx context.Context, ids []int64, index map[int64]int, products []domain.Product) error {
	query := `SELECT product_id, id, title, price, compare_at_price, COALESCE(sku, ''),
	                 COALESCE(barcode, ''), inventory_quantity, weight, COALESCE(weight_unit, ''),
	                 COALESCE(option1, ''), COALESCE(option2, ''), COALESCE(option3, ''), position
	          FROM product_variants
	          WHERE product_id = ANY($1)
	          ORDER BY product_id, position`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query product variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(
			&v.ProductID,
			&v.ID,
			&v.Title,
			&v.Price,
			&v.CompareAtPrice,
			&v.SKU,
			&v.Barcode,
			&v.InventoryQuantity,
			&v.Weight,
			&v.WeightUnit,
			&v.Option1,
			&v.Option2,
			&v.Option3,
			&v.Position,
		); err != nil {
			return fmt.Errorf("scan variant row: %w", err)
		}
		i := index[v.ProductID]
		products[i].Variants = append(products[i].Variants, v)
	}
	return rows.Err()
}
