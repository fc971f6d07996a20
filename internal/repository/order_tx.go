package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/itadmit/quickshop3-sub006/internal/domain"
)

// OrderTx is the transactional surface the order pipeline writes through.
// Every method runs on the same underlying transaction.
type OrderTx interface {
	FindCustomerByEmail(ctx context.Context, storeID int64, email string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, c *domain.Customer) (int64, bool, error)
	UpdateCustomerContact(ctx context.Context, c *domain.Customer) error
	AddCustomerTotals(ctx context.Context, customerID int64, amount float64) error

	StoreCreditForUpdate(ctx context.Context, storeID, customerID int64) (*domain.StoreCredit, error)
	DeductStoreCredit(ctx context.Context, creditID int64, amount float64) error
	InsertCreditTransaction(ctx context.Context, t *domain.CreditTransaction) error

	GiftCardForUpdate(ctx context.Context, storeID int64, code string) (*domain.GiftCard, error)
	DeductGiftCard(ctx context.Context, giftCardID int64, amount float64) error

	NextOrderNumber(ctx context.Context, storeID int64) (int, error)
	IncrementDiscountUsage(ctx context.Context, storeID int64, code string) (int64, error)
	DefaultFulfillmentStatus(ctx context.Context, storeID int64) (string, error)

	InsertOrder(ctx context.Context, o *domain.Order) (int64, error)
	InsertLineItem(ctx context.Context, li *domain.LineItem) (int64, error)

	InsertOutboxEvent(ctx context.Context, eventType, aggregateID string, payload []byte) error
}

type orderTx struct {
	tx *sql.Tx
}

func (t *orderTx) FindCustomerByEmail(ctx context.Context, storeID int64, email string) (*domain.Customer, error) {
	query := `SELECT id, store_id, email, first_name, last_name, phone, accepts_marketing,
	                 tags, note, total_spent, orders_count, created_at, updated_at
	          FROM customers WHERE store_id = $1 AND lower(email) = lower($2)`

	var c domain.Customer
	err := t.tx.QueryRowContext(ctx, query, storeID, email).Scan(
		&c.ID,
		&c.StoreID,
		&c.Email,
		&c.FirstName,
		&c.LastName,
		&c.Phone,
		&c.AcceptsMarketing,
		&c.Tags,
		&c.Note,
		&c.TotalSpent,
		&c.OrdersCount,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query customer by email: %w", err)
	}
	return &c, nil
}

// CreateCustomer inserts the customer with a lowercased email, or resolves the
// existing row when a concurrent checkout got there first. The conflict branch
// refreshes the contact fields the same way UpdateCustomerContact does, and the
// returned flag reports whether a new row was created.
func (t *orderTx) CreateCustomer(ctx context.Context, c *domain.Customer) (int64, bool, error) {
	query := `INSERT INTO customers (store_id, email, first_name, last_name, phone,
	              accepts_marketing, tags, note, total_spent, orders_count, created_at, updated_at)
	          VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8, 0, 0, NOW(), NOW())
	          ON CONFLICT (store_id, lower(email))
	          DO UPDATE SET
	              first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), customers.first_name),
	              last_name  = COALESCE(NULLIF(EXCLUDED.last_name, ''), customers.last_name),
	              phone      = COALESCE(NULLIF(EXCLUDED.phone, ''), customers.phone),
	              accepts_marketing = EXCLUDED.accepts_marketing,
	              updated_at = NOW()
	          RETURNING id, email, (xmax = 0)`

	var (
		id      int64
		created bool
	)
	err := t.tx.QueryRowContext(ctx, query,
		c.StoreID,
		c.Email,
		c.FirstName,
		c.LastName,
		c.Phone,
		c.AcceptsMarketing,
		c.Tags,
		c.Note,
	).Scan(&id, &c.Email, &created)
	if err != nil {
		return 0, false, fmt.Errorf("upsert customer: %w", err)
	}
	return id, created, nil
}

func (t *orderTx) UpdateCustomerContact(ctx context.Context, c *domain.Customer) error {
	query := `UPDATE customers SET
	              first_name = COALESCE(NULLIF($1, ''), first_name),
	              last_name  = COALESCE(NULLIF($2, ''), last_name),
	              phone      = COALESCE(NULLIF($3, ''), phone),
	              accepts_marketing = $4,
	              updated_at = NOW()
	          WHERE id = $5`

	_, err := t.tx.ExecContext(ctx, query, c.FirstName, c.LastName, c.Phone, c.AcceptsMarketing, c.ID)
	if err != nil {
		return fmt.Errorf("update customer contact: %w", err)
	}
	return nil
}

func (t *orderTx) AddCustomerTotals(ctx context.Context, customerID int64, amount float64) error {
	query := `UPDATE customers SET
	              total_spent = COALESCE(total_spent, 0) + $1,
	              orders_count = COALESCE(orders_count, 0) + 1,
	              updated_at = NOW()
	          WHERE id = $2`

	_, err := t.tx.ExecContext(ctx, query, amount, customerID)
	if err != nil {
		return fmt.Errorf("update customer totals: %w", err)
	}
	return nil
}

// StoreCreditForUpdate locks the balance row for the rest of the transaction
// so concurrent checkouts cannot both spend the same balance.
func (t *orderTx) StoreCreditForUpdate(ctx context.Context, storeID, customerID int64) (*domain.StoreCredit, error) {
	query := `SELECT id, store_id, customer_id, balance, updated_at
	          FROM store_credits
	          WHERE store_id = $1 AND customer_id = $2
	          FOR UPDATE`

	var c domain.StoreCredit
	err := t.tx.QueryRowContext(ctx, query, storeID, customerID).Scan(
		&c.ID,
		&c.StoreID,
		&c.CustomerID,
		&c.Balance,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoStoreCredit
	}
	if err != nil {
		return nil, fmt.Errorf("lock store credit: %w", err)
	}
	return &c, nil
}

func (t *orderTx) DeductStoreCredit(ctx context.Context, creditID int64, amount float64) error {
	query := `UPDATE store_credits SET balance = balance - $1, updated_at = NOW() WHERE id = $2`
	_, err := t.tx.ExecContext(ctx, query, amount, creditID)
	if err != nil {
		return fmt.Errorf("deduct store credit: %w", err)
	}
	return nil
}

func (t *orderTx) InsertCreditTransaction(ctx context.Context, tr *domain.CreditTransaction) error {
	query := `INSERT INTO store_credit_transactions (credit_id, customer_id, amount, type, order_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, NOW())`

	_, err := t.tx.ExecContext(ctx, query, tr.CreditID, tr.CustomerID, tr.Amount, tr.Type, tr.OrderID)
	if err != nil {
		return fmt.Errorf("insert credit transaction: %w", err)
	}
	return nil
}

func (t *orderTx) GiftCardForUpdate(ctx context.Context, storeID int64, code string) (*domain.GiftCard, error) {
	query := `SELECT id, store_id, code, balance, expires_at, created_at, updated_at
	          FROM gift_cards
	          WHERE store_id = $1 AND code = $2
	          FOR UPDATE`

	var g domain.GiftCard
	var expires sql.NullTime
	err := t.tx.QueryRowContext(ctx, query, storeID, code).Scan(
		&g.ID,
		&g.StoreID,
		&g.Code,
		&g.Balance,
		&expires,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGiftCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock gift card: %w", err)
	}
	if expires.Valid {
		g.ExpiresAt = &expires.Time
		if expires.Time.Before(time.Now()) {
			return nil, ErrGiftCardExpired
		}
	}
	return &g, nil
}

func (t *orderTx) DeductGiftCard(ctx context.Context, giftCardID int64, amount float64) error {
	query := `UPDATE gift_cards SET balance = balance - $1, updated_at = NOW() WHERE id = $2`
	_, err := t.tx.ExecContext(ctx, query, amount, giftCardID)
	if err != nil {
		return fmt.Errorf("deduct gift card: %w", err)
	}
	return nil
}

// NextOrderNumber allocates the next store-scoped number atomically through a
// counter row upsert. Numbers start at 1000 and increase by one per order.
func (t *orderTx) NextOrderNumber(ctx context.Context, storeID int64) (int, error) {
	query := `INSERT INTO order_counters (store_id, last_number)
	          VALUES ($1, 1000)
	          ON CONFLICT (store_id)
	          DO UPDATE SET last_number = GREATEST(order_counters.last_number + 1, 1000)
	          RETURNING last_number`

	var n int
	if err := t.tx.QueryRowContext(ctx, query, storeID).Scan(&n); err != nil {
		return 0, fmt.Errorf("allocate order number: %w", err)
	}
	return n, nil
}

// IncrementDiscountUsage bumps the usage counter and returns the discount id.
// Unknown codes return ErrDiscountNotFound; the pipeline treats that as a
// skip, matching the tolerant behavior of the original order form.
func (t *orderTx) IncrementDiscountUsage(ctx context.Context, storeID int64, code string) (int64, error) {
	query := `UPDATE discount_codes
	          SET usage_count = usage_count + 1, updated_at = NOW()
	          WHERE store_id = $1 AND code = $2
	          RETURNING id`

	var id int64
	err := t.tx.QueryRowContext(ctx, query, storeID, code).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrDiscountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment discount usage: %w", err)
	}
	return id, nil
}

// DefaultFulfillmentStatus returns the store's default custom status, or the
// first one by position, or "" when the store defines none.
func (t *orderTx) DefaultFulfillmentStatus(ctx context.Context, storeID int64) (string, error) {
	query := `SELECT name FROM fulfillment_statuses
	          WHERE store_id = $1
	          ORDER BY is_default DESC, position ASC
	          LIMIT 1`

	var name string
	err := t.tx.QueryRowContext(ctx, query, storeID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query default fulfillment status: %w", err)
	}
	return name, nil
}

func (t *orderTx) InsertOrder(ctx context.Context, o *domain.Order) (int64, error) {
	billing, err := marshalAddress(o.BillingAddress)
	if err != nil {
		return 0, err
	}
	shipping, err := marshalAddress(o.ShippingAddress)
	if err != nil {
		return 0, err
	}

	var discountCodes []byte
	if len(o.DiscountCodes) > 0 {
		discountCodes, err = json.Marshal(o.DiscountCodes)
		if err != nil {
			return 0, fmt.Errorf("marshal discount codes: %w", err)
		}
	}

	var noteAttrs []byte
	if !o.NoteAttributes.IsZero() {
		noteAttrs, err = json.Marshal(o.NoteAttributes)
		if err != nil {
			return 0, fmt.Errorf("marshal note attributes: %w", err)
		}
	}

	query := `INSERT INTO orders (
	              store_id, customer_id, email, phone, name,
	              order_number, order_name, order_handle,
	              financial_status, fulfillment_status, payment_method,
	              subtotal_price, total_shipping_price, total_tax, total_discounts, total_price,
	              currency, billing_address, shipping_address, discount_codes,
	              note, tags, note_attributes, created_at, updated_at
	          ) VALUES (
	              $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
	              $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, NOW(), NOW()
	          ) RETURNING id, created_at, updated_at`

	err = t.tx.QueryRowContext(ctx, query,
		o.StoreID,
		o.CustomerID,
		o.Email,
		o.Phone,
		o.Name,
		o.OrderNumber,
		o.OrderName,
		o.OrderHandle,
		o.FinancialStatus,
		o.FulfillmentStatus,
		o.PaymentMethod,
		o.SubtotalPrice,
		o.TotalShipping,
		o.TotalTax,
		o.TotalDiscounts,
		o.TotalPrice,
		o.Currency,
		billing,
		shipping,
		nullableJSON(discountCodes),
		o.Note,
		o.Tags,
		nullableJSON(noteAttrs),
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return o.ID, nil
}

func (t *orderTx) InsertLineItem(ctx context.Context, li *domain.LineItem) (int64, error) {
	var props []byte
	if len(li.Properties) > 0 {
		var err error
		props, err = json.Marshal(li.Properties)
		if err != nil {
			return 0, fmt.Errorf("marshal line item properties: %w", err)
		}
	}

	query := `INSERT INTO order_line_items (
	              order_id, product_id, variant_id, title, variant_title, sku,
	              quantity, price, total_discount, properties, created_at, updated_at
	          ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	          RETURNING id, created_at, updated_at`

	err := t.tx.QueryRowContext(ctx, query,
		li.OrderID,
		li.ProductID,
		li.VariantID,
		li.Title,
		li.VariantTitle,
		li.SKU,
		li.Quantity,
		li.Price,
		li.TotalDiscount,
		nullableJSON(props),
	).Scan(&li.ID, &li.CreatedAt, &li.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert line item: %w", err)
	}
	return li.ID, nil
}

func (t *orderTx) InsertOutboxEvent(ctx context.Context, eventType, aggregateID string, payload []byte) error {
	query := `INSERT INTO outbox_events (event_type, aggregate_id, payload, created_at)
	          VALUES ($1, $2, $3, NOW())`

	_, err := t.tx.ExecContext(ctx, query, eventType, aggregateID, payload)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func marshalAddress(a *domain.Address) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal address: %w", err)
	}
	return data, nil
}

// nullableJSON keeps empty JSON columns NULL instead of storing "".
func nullableJSON(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return data
}
