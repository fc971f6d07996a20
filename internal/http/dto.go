package http

import (
	"time"

	"github.com/itadmit/quickshop3-sub006/internal/domain"
)

// createOrderRequest is shared by the dashboard order form and the storefront
// checkout; both reduce to the same pipeline input.
type createOrderRequest struct {
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	LineItems       []domain.InputLineItem   `json:"line_items"`
	ShippingPrice   float64                  `json:"shipping_price"`
	TaxAmount       float64                  `json:"tax_amount"`
	Currency        string                   `json:"currency"`
	BillingAddress  *domain.Address          `json:"billing_address"`
	ShippingAddress *domain.Address          `json:"shipping_address"`
	PaymentMethod   string                   `json:"payment_method"`
	DeliveryMethod  string                   `json:"delivery_method"`
	DiscountCodes   []string                 `json:"discount_codes"`
	Discounts       []domain.AppliedDiscount `json:"discounts"`

	StoreCredit  float64 `json:"store_credit"`
	GiftCardCode string  `json:"gift_card_code"`

	Note                  string `json:"note"`
	Tags                  string `json:"tags"`
	BuyerAcceptsMarketing bool   `json:"buyer_accepts_marketing"`
}

func (req *createOrderRequest) toInput(storeID int64, source string, userID *int64) *domain.CreateOrderInput {
	return &domain.CreateOrderInput{
		StoreID:               storeID,
		Email:                 req.Email,
		Phone:                 req.Phone,
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		LineItems:             req.LineItems,
		ShippingPrice:         req.ShippingPrice,
		TaxAmount:             req.TaxAmount,
		Currency:              req.Currency,
		BillingAddress:        req.BillingAddress,
		ShippingAddress:       req.ShippingAddress,
		PaymentMethod:         domain.PaymentMethod(req.PaymentMethod),
		DeliveryMethod:        req.DeliveryMethod,
		DiscountCodes:         req.DiscountCodes,
		Discounts:             req.Discounts,
		StoreCreditRequested:  req.StoreCredit,
		GiftCardCode:          req.GiftCardCode,
		Note:                  req.Note,
		Tags:                  req.Tags,
		BuyerAcceptsMarketing: req.BuyerAcceptsMarketing,
		Source:                source,
		UserID:                userID,
	}
}

type lineItemResponse struct {
	ID            int64          `json:"id"`
	ProductID     *int64         `json:"product_id,omitempty"`
	VariantID     *int64         `json:"variant_id,omitempty"`
	Title         string         `json:"title"`
	VariantTitle  string         `json:"variant_title,omitempty"`
	SKU           string         `json:"sku,omitempty"`
	Quantity      int            `json:"quantity"`
	Price         float64        `json:"price"`
	TotalDiscount float64        `json:"total_discount"`
	Properties    map[string]any `json:"properties,omitempty"`
}

type orderResponse struct {
	ID                int64                 `json:"id"`
	OrderNumber       int                   `json:"order_number"`
	OrderName         string                `json:"order_name"`
	OrderHandle       string                `json:"order_handle"`
	Email             string                `json:"email"`
	Phone             string                `json:"phone,omitempty"`
	Name              string                `json:"name,omitempty"`
	FinancialStatus   string                `json:"financial_status"`
	FulfillmentStatus string                `json:"fulfillment_status"`
	PaymentMethod     string                `json:"payment_method"`
	SubtotalPrice     float64               `json:"subtotal_price"`
	TotalShipping     float64               `json:"total_shipping"`
	TotalTax          float64               `json:"total_tax"`
	TotalDiscounts    float64               `json:"total_discounts"`
	TotalPrice        float64               `json:"total_price"`
	Currency          string                `json:"currency"`
	BillingAddress    *domain.Address       `json:"billing_address,omitempty"`
	ShippingAddress   *domain.Address       `json:"shipping_address,omitempty"`
	DiscountCodes     []string              `json:"discount_codes,omitempty"`
	Note              string                `json:"note,omitempty"`
	Tags              string                `json:"tags,omitempty"`
	NoteAttributes    domain.NoteAttributes `json:"note_attributes"`
	LineItems         []lineItemResponse    `json:"line_items"`
	CreatedAt         time.Time             `json:"created_at"`
}

func toOrderResponse(o *domain.OrderWithItems) orderResponse {
	items := make([]lineItemResponse, 0, len(o.Items))
	for _, li := range o.Items {
		items = append(items, lineItemResponse{
			ID:            li.ID,
			ProductID:     li.ProductID,
			VariantID:     li.VariantID,
			Title:         li.Title,
			VariantTitle:  li.VariantTitle,
			SKU:           li.SKU,
			Quantity:      li.Quantity,
			Price:         li.Price,
			TotalDiscount: li.TotalDiscount,
			Properties:    li.Properties,
		})
	}
	return orderResponse{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		OrderName:         o.OrderName,
		OrderHandle:       o.OrderHandle,
		Email:             o.Email,
		Phone:             o.Phone,
		Name:              o.Name,
		FinancialStatus:   o.FinancialStatus.String(),
		FulfillmentStatus: o.FulfillmentStatus,
		PaymentMethod:     o.PaymentMethod.String(),
		SubtotalPrice:     o.SubtotalPrice,
		TotalShipping:     o.TotalShipping,
		TotalTax:          o.TotalTax,
		TotalDiscounts:    o.TotalDiscounts,
		TotalPrice:        o.TotalPrice,
		Currency:          o.Currency,
		BillingAddress:    o.BillingAddress,
		ShippingAddress:   o.ShippingAddress,
		DiscountCodes:     o.DiscountCodes,
		Note:              o.Note,
		Tags:              o.Tags,
		NoteAttributes:    o.NoteAttributes,
		LineItems:         items,
		CreatedAt:         o.CreatedAt,
	}
}

type orderListResponse struct {
	Orders     []orderResponse `json:"orders"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

func toOrderListResponse(page *domain.OrderPage) orderListResponse {
	orders := make([]orderResponse, 0, len(page.Orders))
	for i := range page.Orders {
		orders = append(orders, toOrderResponse(&page.Orders[i]))
	}
	return orderListResponse{
		Orders:     orders,
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}
}
