package service

import "errors"

var (
	ErrEmptyCart            = errors.New("cart is empty, nothing to order")
	ErrMissingEmail         = errors.New("customer email is required")
	ErrInvalidQuantity      = errors.New("line item quantity must be positive")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
	ErrNegativeAmount       = errors.New("monetary amounts must not be negative")
)
