package domain

// Domain event types carried through the outbox.
const (
	EventOrderCreated     = "order.created"
	EventDiscountUsed     = "discount.used"
	EventCustomerCreated  = "customer.created"
	EventInventoryUpdated = "inventory.updated"
)

type OrderCreatedLineItem struct {
	ID        int64   `json:"id"`
	ProductID *int64  `json:"product_id"`
	VariantID *int64  `json:"variant_id"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// OrderCreatedEvent is the normalized summary consumers (email receipts,
// analytics, webhooks) get. It is written to the outbox in the same
// transaction as the order, so consumers never see it before the durable
// write.
type OrderCreatedEvent struct {
	OrderID       int64                  `json:"order_id"`
	StoreID       int64                  `json:"store_id"`
	CustomerID    *int64                 `json:"customer_id"`
	OrderNumber   int                    `json:"order_number"`
	OrderName     string                 `json:"order_name"`
	TotalPrice    float64                `json:"total_price"`
	Currency      string                 `json:"currency"`
	Email         string                 `json:"email"`
	DiscountCodes []string               `json:"discount_codes,omitempty"`
	LineItems     []OrderCreatedLineItem `json:"line_items"`
	Source        string                 `json:"source"`
}

type DiscountUsedEvent struct {
	DiscountID int64  `json:"discount_id"`
	OrderID    int64  `json:"order_id"`
	StoreID    int64  `json:"store_id"`
	Code       string `json:"code"`
}

type CustomerCreatedEvent struct {
	CustomerID int64  `json:"customer_id"`
	StoreID    int64  `json:"store_id"`
	Email      string `json:"email"`
}

type InventoryUpdatedEvent struct {
	VariantID   int64  `json:"variant_id"`
	StoreID     int64  `json:"store_id"`
	Quantity    int    `json:"quantity"`
	OldQuantity int    `json:"old_quantity"`
	Change      int    `json:"change"`
	Reason      string `json:"reason"`
}
