package service

import (
	"context"
	"sync"

	"github.com/itadmit/quickshop3-sub006/internal/domain"
	r "github.com/itadmit/quickshop3-sub006/internal/repository"
)

// MockOrderStore implements r.OrderStore. InTransaction hands the pipeline a
// MockOrderTx and commits unconditionally unless fn errors.
type MockOrderStore struct {
	Tx *MockOrderTx

	Store *domain.Store
}

func (m *MockOrderStore) InTransaction(_ context.Context, fn func(tx r.OrderTx) error) error {
	return fn(m.Tx)
}

func (m *MockOrderStore) GetStoreBySlug(_ context.Context, slug string) (*domain.Store, error) {
	if m.Store == nil || m.Store.Slug != slug {
		return nil, r.ErrStoreNotFound
	}
	return m.Store, nil
}

func (m *MockOrderStore) GetOrderByID(_ context.Context, _, _ int64) (*domain.OrderWithItems, error) {
	return nil, r.ErrOrderNotFound
}

func (m *MockOrderStore) ListOrders(_ context.Context, _ domain.OrderFilter) (*domain.OrderPage, error) {
	return &domain.OrderPage{}, nil
}

type outboxRecord struct {
	EventType   string
	AggregateID string
	Payload     []byte
}

// MockOrderTx records every pipeline write so tests can assert on the exact
// sequence of effects.
type MockOrderTx struct {
	Customer    *domain.Customer
	CustomerErr error
	NextID      int64

	// CreateResolvesExisting makes CreateCustomer report that the row
	// already existed, as when a concurrent checkout inserted it first.
	CreateResolvesExisting bool

	Credit    *domain.StoreCredit
	CreditErr error

	GiftCard    *domain.GiftCard
	GiftCardErr error

	OrderNumber    int
	DiscountIDs    map[string]int64
	DefaultStatus  string
	InsertOrderErr error

	// captured writes
	CreatedCustomer    *domain.Customer
	UpdatedCustomer    *domain.Customer
	CreditDeducted     float64
	CreditTransactions []domain.CreditTransaction
	GiftCardDeducted   float64
	InsertedOrder      *domain.Order
	InsertedItems      []domain.LineItem
	TotalsCustomerID   int64
	TotalsAmount       float64
	OutboxEvents       []outboxRecord
}

func (m *MockOrderTx) FindCustomerByEmail(_ context.Context, _ int64, _ string) (*domain.Customer, error) {
	if m.CustomerErr != nil {
		return nil, m.CustomerErr
	}
	if m.Customer == nil {
		return nil, r.ErrCustomerNotFound
	}
	return m.Customer, nil
}

func (m *MockOrderTx) CreateCustomer(_ context.Context, c *domain.Customer) (int64, bool, error) {
	m.CreatedCustomer = c
	if m.NextID == 0 {
		m.NextID = 1
	}
	return m.NextID, !m.CreateResolvesExisting, nil
}

func (m *MockOrderTx) UpdateCustomerContact(_ context.Context, c *domain.Customer) error {
	m.UpdatedCustomer = c
	return nil
}

func (m *MockOrderTx) AddCustomerTotals(_ context.Context, customerID int64, amount float64) error {
	m.TotalsCustomerID = customerID
	m.TotalsAmount = amount
	return nil
}

func (m *MockOrderTx) StoreCreditForUpdate(_ context.Context, _, _ int64) (*domain.StoreCredit, error) {
	if m.CreditErr != nil {
		return nil, m.CreditErr
	}
	if m.Credit == nil {
		return nil, r.ErrNoStoreCredit
	}
	return m.Credit, nil
}

func (m *MockOrderTx) DeductStoreCredit(_ context.Context, _ int64, amount float64) error {
	m.CreditDeducted += amount
	return nil
}

func (m *MockOrderTx) InsertCreditTransaction(_ context.Context, t *domain.CreditTransaction) error {
	m.CreditTransactions = append(m.CreditTransactions, *t)
	return nil
}

func (m *MockOrderTx) GiftCardForUpdate(_ context.Context, _ int64, code string) (*domain.GiftCard, error) {
	if m.GiftCardErr != nil {
		return nil, m.GiftCardErr
	}
	if m.GiftCard == nil || m.GiftCard.Code != code {
		return nil, r.ErrGiftCardNotFound
	}
	return m.GiftCard, nil
}

func (m *MockOrderTx) DeductGiftCard(_ context.Context, _ int64, amount float64) error {
	m.GiftCardDeducted += amount
	return nil
}

func (m *MockOrderTx) NextOrderNumber(_ context.Context, _ int64) (int, error) {
	if m.OrderNumber == 0 {
		m.OrderNumber = 1000
	}
	return m.OrderNumber, nil
}

func (m *MockOrderTx) IncrementDiscountUsage(_ context.Context, _ int64, code string) (int64, error) {
	id, ok := m.DiscountIDs[code]
	if !ok {
		return 0, r.ErrDiscountNotFound
	}
	return id, nil
}

func (m *MockOrderTx) DefaultFulfillmentStatus(_ context.Context, _ int64) (string, error) {
	return m.DefaultStatus, nil
}

func (m *MockOrderTx) InsertOrder(_ context.Context, o *domain.Order) (int64, error) {
	if m.InsertOrderErr != nil {
		return 0, m.InsertOrderErr
	}
	o.ID = 500
	m.InsertedOrder = o
	return o.ID, nil
}

func (m *MockOrderTx) InsertLineItem(_ context.Context, li *domain.LineItem) (int64, error) {
	li.ID = int64(len(m.InsertedItems) + 1)
	m.InsertedItems = append(m.InsertedItems, *li)
	return li.ID, nil
}

func (m *MockOrderTx) InsertOutboxEvent(_ context.Context, eventType, aggregateID string, payload []byte) error {
	m.OutboxEvents = append(m.OutboxEvents, outboxRecord{
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     payload,
	})
	return nil
}

// MockNotifier records sends; WaitGroup lets tests wait for the post-commit
// goroutines.
type MockNotifier struct {
	mu sync.Mutex
	wg sync.WaitGroup

	WelcomeEmails []string
	SyncedEmails  []string
	Confirmations []string
}

func (m *MockNotifier) Expect(n int) {
	m.wg.Add(n)
}

func (m *MockNotifier) Wait() {
	m.wg.Wait()
}

func (m *MockNotifier) SendWelcomeEmail(_ context.Context, _ int64, email string) error {
	m.mu.Lock()
	m.WelcomeEmails = append(m.WelcomeEmails, email)
	m.mu.Unlock()
	m.wg.Done()
	return nil
}

func (m *MockNotifier) SyncContact(_ context.Context, _ int64, customer *domain.Customer) error {
	m.mu.Lock()
	m.SyncedEmails = append(m.SyncedEmails, customer.Email)
	m.mu.Unlock()
	m.wg.Done()
	return nil
}

func (m *MockNotifier) SendOrderConfirmation(_ context.Context, _ int64, order *domain.OrderWithItems) error {
	m.mu.Lock()
	m.Confirmations = append(m.Confirmations, order.OrderName)
	m.mu.Unlock()
	m.wg.Done()
	return nil
}
