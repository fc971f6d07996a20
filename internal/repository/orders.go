package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itadmit/quickshop3-sub006/internal/domain"
)

func (r *Repository) GetOrderByID(ctx context.Context, storeID, id int64) (*domain.OrderWithItems, error) {
	query := orderSelectColumns + ` FROM orders WHERE store_id = $1 AND id = $2`

	row := r.db.QueryRowContext(ctx, query, storeID, id)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	items, err := r.lineItemsForOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &domain.OrderWithItems{Order: *order, Items: items}, nil
}

func (r *Repository) ListOrders(ctx context.Context, filter domain.OrderFilter) (*domain.OrderPage, error) {
	where := ` WHERE store_id = $1`
	params := []any{filter.StoreID}

	if filter.FinancialStatus != "" {
		params = append(params, filter.FinancialStatus)
		where += fmt.Sprintf(" AND financial_status = $%d", len(params))
	}
	if filter.FulfillmentStatus != "" {
		params = append(params, filter.FulfillmentStatus)
		where += fmt.Sprintf(" AND fulfillment_status = $%d", len(params))
	}
	if filter.Search != "" {
		params = append(params, "%"+filter.Search+"%")
		n := len(params)
		where += fmt.Sprintf(" AND (order_name ILIKE $%d OR email ILIKE $%d OR name ILIKE $%d)", n, n, n)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders"+where, params...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	params = append(params, limit, (page-1)*limit)
	query := orderSelectColumns + " FROM orders" + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(params)-1, len(params))

	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.OrderWithItems
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		items, err := r.lineItemsForOrder(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		orders = append(orders, domain.OrderWithItems{Order: *order, Items: items})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	totalPages := (total + limit - 1) / limit
	return &domain.OrderPage{
		Orders:     orders,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func (r *Repository) lineItemsForOrder(ctx context.Context, orderID int64) ([]domain.LineItem, error) {
	query := `SELECT id, order_id, product_id, variant_id, title, variant_title, sku,
	                 quantity, price, total_discount, properties, created_at, updated_at
	          FROM order_line_items WHERE order_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query line items: %w", err)
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var li domain.LineItem
		var propsJSON []byte
		if err := rows.Scan(
			&li.ID,
			&li.OrderID,
			&li.ProductID,
			&li.VariantID,
			&li.Title,
			&li.VariantTitle,
			&li.SKU,
			&li.Quantity,
			&li.Price,
			&li.TotalDiscount,
			&propsJSON,
			&li.CreatedAt,
			&li.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan line item row: %w", err)
		}
		if len(propsJSON) > 0 {
			if err := json.Unmarshal(propsJSON, &li.Properties); err != nil {
				return nil, fmt.Errorf("unmarshal line item properties: %w", err)
			}
		}
		items = append(items, li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

const orderSelectColumns = `SELECT id, store_id, customer_id, email, phone, name,
	order_number, order_name, order_handle,
	financial_status, fulfillment_status, payment_method,
	subtotal_price, total_shipping_price, total_tax, total_discounts, total_price,
	currency, billing_address, shipping_address, discount_codes,
	note, tags, note_attributes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var billing, shipping, discountCodes, noteAttrs []byte
	err := row.Scan(
		&o.ID,
		&o.StoreID,
		&o.CustomerID,
		&o.Email,
		&o.Phone,
		&o.Name,
		&o.OrderNumber,
		&o.OrderName,
		&o.OrderHandle,
		&o.FinancialStatus,
		&o.FulfillmentStatus,
		&o.PaymentMethod,
		&o.SubtotalPrice,
		&o.TotalShipping,
		&o.TotalTax,
		&o.TotalDiscounts,
		&o.TotalPrice,
		&o.Currency,
		&billing,
		&shipping,
		&discountCodes,
		&o.Note,
		&o.Tags,
		&noteAttrs,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(billing) > 0 {
		o.BillingAddress = &domain.Address{}
		if err := json.Unmarshal(billing, o.BillingAddress); err != nil {
			return nil, fmt.Errorf("unmarshal billing address: %w", err)
		}
	}
	if len(shipping) > 0 {
		o.ShippingAddress = &domain.Address{}
		if err := json.Unmarshal(shipping, o.ShippingAddress); err != nil {
			return nil, fmt.Errorf("unmarshal shipping address: %w", err)
		}
	}
	if len(discountCodes) > 0 {
		if err := json.Unmarshal(discountCodes, &o.DiscountCodes); err != nil {
			return nil, fmt.Errorf("unmarshal discount codes: %w", err)
		}
	}
	if len(noteAttrs) > 0 {
		if err := json.Unmarshal(noteAttrs, &o.NoteAttributes); err != nil {
			return nil, fmt.Errorf("unmarshal note attributes: %w", err)
		}
	}
	return &o, nil
}
