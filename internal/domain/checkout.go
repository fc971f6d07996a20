package domain

// InputLineItem is one cart line with pricing already resolved by the caller.
type InputLineItem struct {
	ProductID     *int64         `json:"product_id"`
	VariantID     *int64         `json:"variant_id"`
	Title         string         `json:"title"`
	VariantTitle  string         `json:"variant_title"`
	SKU           string         `json:"sku"`
	Quantity      int            `json:"quantity"`
	Price         float64        `json:"price"`          // post-discount unit price
	TotalDiscount float64        `json:"total_discount"` // per-line discount amount
	Image         string         `json:"image"`
	Properties    map[string]any `json:"properties"`
}

// CreateOrderInput is the cart-equivalent payload consumed by the order
// pipeline. The storefront checkout and the dashboard order form both reduce
// to this shape.
type CreateOrderInput struct {
	StoreID   int64
	Email     string
	Phone     string
	FirstName string
	LastName  string

	LineItems       []InputLineItem
	ShippingPrice   float64
	TaxAmount       float64
	Currency        string
	BillingAddress  *Address
	ShippingAddress *Address

	PaymentMethod  PaymentMethod
	DeliveryMethod string
	DiscountCodes  []string
	Discounts      []AppliedDiscount

	// StoreCreditRequested is clamped to min(requested, balance, total).
	StoreCreditRequested float64
	GiftCardCode         string

	Note                  string
	Tags                  string
	BuyerAcceptsMarketing bool

	// Source distinguishes the storefront checkout from dashboard creation
	// in emitted events. UserID is set for dashboard-originated orders.
	Source string
	UserID *int64
}

func (in *CreateOrderInput) Name() string {
	switch {
	case in.FirstName == "":
		return in.LastName
	case in.LastName == "":
		return in.FirstName
	default:
		return in.FirstName + " " + in.LastName
	}
}
