package domain

import "time"

type Customer struct {
	ID               int64
	StoreID          int64
	Email            string
	FirstName        string
	LastName         string
	Phone            string
	AcceptsMarketing bool
	Tags             string
	Note             string
	TotalSpent       float64
	OrdersCount      int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Contact is a lightweight CRM record, distinct from Customer: contacts can
// exist without ever ordering (newsletter signups, imported lists).
type Contact struct {
	ID        int64
	StoreID   int64
	Email     string
	Name      string
	Phone     string
	Tags      string
	Source    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID      int64
	StoreID int64
	Email   string
}
