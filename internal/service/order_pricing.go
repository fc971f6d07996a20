package service

import "github.com/itadmit/quickshop3-sub006/internal/domain"

// orderTotals is the monetary breakdown derived from the cart payload before
// any credit or gift card is applied.
type orderTotals struct {
	Subtotal       float64
	Shipping       float64
	Tax            float64
	TotalDiscounts float64
	Total          float64
}

// computeTotals sums the cart. Line item prices arrive post-discount, so only
// cart-level discounts reduce the payable total; line-level discount amounts
// are folded into TotalDiscounts for reporting.
func computeTotals(in *domain.CreateOrderInput) orderTotals {
	var subtotal, lineDiscounts float64
	for _, li := range in.LineItems {
		subtotal += li.Price * float64(li.Quantity)
		lineDiscounts += li.TotalDiscount
	}

	var cartDiscounts float64
	for _, d := range in.Discounts {
		cartDiscounts += d.Amount
	}

	total := subtotal + in.ShippingPrice + in.TaxAmount - cartDiscounts
	if total < 0 {
		total = 0
	}

	return orderTotals{
		Subtotal:       subtotal,
		Shipping:       in.ShippingPrice,
		Tax:            in.TaxAmount,
		TotalDiscounts: lineDiscounts + cartDiscounts,
		Total:          total,
	}
}

// creditToUse clamps a requested credit amount: never more than the balance,
// never more than what is left to pay, never negative.
func creditToUse(requested, balance, remaining float64) float64 {
	used := requested
	if used > balance {
		used = balance
	}
	if used > remaining {
		used = remaining
	}
	if used < 0 {
		used = 0
	}
	return used
}

// effectivePaymentMethod derives the "true" payment method. When credits and
// gift cards cover the full total the order was really paid by that
// instrument, gift card taking precedence over store credit.
func effectivePaymentMethod(requested domain.PaymentMethod, remaining, giftUsed, creditUsed float64) domain.PaymentMethod {
	if remaining > 0 {
		return requested
	}
	if giftUsed > 0 {
		return domain.PaymentMethodGiftCard
	}
	if creditUsed > 0 {
		return domain.PaymentMethodStoreCredit
	}
	return requested
}

// deriveFinancialStatus: paid iff nothing remains to pay. Deferred methods
// (cash, bank transfer) stay pending until manually reconciled; card payments
// stay pending until the payment callback confirms capture.
func deriveFinancialStatus(remaining float64) domain.FinancialStatus {
	if remaining <= 0 {
		return domain.FinancialStatusPaid
	}
	return domain.FinancialStatusPending
}

// deriveFulfillmentStatus: fulfillment never starts before payment. Paid
// orders get the store's default custom status, falling back to the literal
// "paid".
func deriveFulfillmentStatus(financial domain.FinancialStatus, storeDefault string) domain.FulfillmentStatus {
	if financial != domain.FinancialStatusPaid {
		return domain.FulfillmentStatusPending
	}
	if storeDefault != "" {
		return storeDefault
	}
	return domain.FulfillmentStatusPaid
}
