package repository

import "errors"

var (
	ErrStoreNotFound    = errors.New("store not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrNoStoreCredit    = errors.New("no store credit balance for customer")
	ErrGiftCardNotFound = errors.New("gift card not found")
	ErrGiftCardExpired  = errors.New("gift card expired")
	ErrDiscountNotFound = errors.New("discount code not found")
	ErrVariantNotFound  = errors.New("variant not found")
	ErrUserNotFound     = errors.New("user not found")
)
