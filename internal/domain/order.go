package domain

import "time"

type FinancialStatus string

const (
	FinancialStatusPending           FinancialStatus = "pending"
	FinancialStatusAuthorized        FinancialStatus = "authorized"
	FinancialStatusPartiallyPaid     FinancialStatus = "partially_paid"
	FinancialStatusPaid              FinancialStatus = "paid"
	FinancialStatusPartiallyRefunded FinancialStatus = "partially_refunded"
	FinancialStatusRefunded          FinancialStatus = "refunded"
	FinancialStatusVoided            FinancialStatus = "voided"
)

func (s FinancialStatus) String() string {
	return string(s)
}

// FulfillmentStatus is a string rather than an enum because stores can define
// custom statuses beyond the built-in ones.
type FulfillmentStatus = string

const (
	FulfillmentStatusPending FulfillmentStatus = "pending"
	FulfillmentStatusPaid    FulfillmentStatus = "paid"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodGiftCard     PaymentMethod = "gift_card"
	PaymentMethodStoreCredit  PaymentMethod = "store_credit"
)

// Deferred reports whether the method settles out-of-band. Deferred methods
// stay "pending" until someone reconciles them manually or a payment callback
// confirms capture.
func (m PaymentMethod) Deferred() bool {
	return m == PaymentMethodCash || m == PaymentMethodBankTransfer
}

func (m PaymentMethod) String() string {
	return string(m)
}

// Address is stored on the order as a JSON snapshot, not a foreign key, so
// historical orders survive later address-book edits.
type Address struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address1,omitempty"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city,omitempty"`
	Province  string `json:"province,omitempty"`
	Country   string `json:"country,omitempty"`
	Zip       string `json:"zip,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// AppliedDiscount records one discount's contribution for reporting. Code is
// empty for automatic (rule-based) discounts.
type AppliedDiscount struct {
	Code      string  `json:"code,omitempty"`
	Title     string  `json:"title,omitempty"`
	Amount    float64 `json:"amount"`
	Automatic bool    `json:"automatic,omitempty"`
}

// NoteAttributes is the checkout metadata bag carried on the order. The
// upstream schema stored this as free-form JSON; the fields the pipeline
// actually writes are modeled explicitly and serialize compatibly.
type NoteAttributes struct {
	DeliveryMethod   string            `json:"delivery_method,omitempty"`
	Discounts        []AppliedDiscount `json:"discounts,omitempty"`
	StoreCreditUsed  float64           `json:"store_credit_used,omitempty"`
	GiftCardCode     string            `json:"gift_card_code,omitempty"`
	GiftCardUsed     float64           `json:"gift_card_used,omitempty"`
	RequestedPayment string            `json:"requested_payment_method,omitempty"`
}

func (n NoteAttributes) IsZero() bool {
	return n.DeliveryMethod == "" && len(n.Discounts) == 0 &&
		n.StoreCreditUsed == 0 && n.GiftCardCode == "" &&
		n.GiftCardUsed == 0 && n.RequestedPayment == ""
}

type Order struct {
	ID                int64
	StoreID           int64
	CustomerID        *int64
	Email             string
	Phone             string
	Name              string
	OrderNumber       int
	OrderName         string // display form, e.g. "#1000"
	OrderHandle       string // opaque handle for public order URLs
	FinancialStatus   FinancialStatus
	FulfillmentStatus FulfillmentStatus
	PaymentMethod     PaymentMethod
	SubtotalPrice     float64
	TotalShipping     float64
	TotalTax          float64
	TotalDiscounts    float64
	TotalPrice        float64
	Currency          string
	BillingAddress    *Address
	ShippingAddress   *Address
	DiscountCodes     []string
	Note              string
	Tags              string
	NoteAttributes    NoteAttributes
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type LineItem struct {
	ID           int64
	OrderID      int64
	ProductID    *int64
	VariantID    *int64
	Title        string
	VariantTitle string
	SKU          string
	Quantity     int
	// Price is the post-discount unit price. TotalDiscount is the per-line
	// discount amount, kept separately so reporting can reconstruct the gross.
	Price         float64
	TotalDiscount float64
	Properties    map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OrderWithItems struct {
	Order
	Items []LineItem
}

// OrderPage is one page of the dashboard order listing.
type OrderPage struct {
	Orders     []OrderWithItems
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

type OrderFilter struct {
	StoreID           int64
	FinancialStatus   string
	FulfillmentStatus string
	Search            string
	Page              int
	Limit             int
}
