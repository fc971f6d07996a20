package domain

import "time"

// StoreCredit holds the cached balance for one (store, customer) pair. The
// signed transaction ledger is the audit trail; the balance is derived.
type StoreCredit struct {
	ID         int64
	StoreID    int64
	CustomerID int64
	Balance    float64
	UpdatedAt  time.Time
}

type CreditTransactionType string

const (
	CreditTransactionGranted  CreditTransactionType = "granted"
	CreditTransactionUsed     CreditTransactionType = "used"
	CreditTransactionRefunded CreditTransactionType = "refunded"
)

// CreditTransaction is one signed ledger entry. Amount is negative for usage.
type CreditTransaction struct {
	ID         int64
	CreditID   int64
	CustomerID int64
	Amount     float64
	Type       CreditTransactionType
	OrderID    *int64
	CreatedAt  time.Time
}

type GiftCard struct {
	ID        int64
	StoreID   int64
	Code      string
	Balance   float64
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type DiscountCode struct {
	ID         int64
	StoreID    int64
	Code       string
	UsageCount int
	UpdatedAt  time.Time
}
