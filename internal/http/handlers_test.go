package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itadmit/quickshop3-sub006/internal/cache"
	"github.com/itadmit/quickshop3-sub006/internal/domain"
	r "github.com/itadmit/quickshop3-sub006/internal/repository"
	"github.com/itadmit/quickshop3-sub006/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockOrderService implements service.OrderService.
type MockOrderService struct {
	LastInput *domain.CreateOrderInput
	Order     *domain.OrderWithItems
	Err       error
}

func (m *MockOrderService) CreateOrder(_ context.Context, in *domain.CreateOrderInput) (*domain.OrderWithItems, error) {
	m.LastInput = in
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Order, nil
}

var _ service.OrderService = (*MockOrderService)(nil)

// MockStore implements r.OrderStore, TokenResolver and ProductCatalog.
type MockStore struct {
	Store    *domain.Store
	Order    *domain.OrderWithItems
	Page     *domain.OrderPage
	User     *domain.User
	Products []domain.Product

	LastFilter domain.OrderFilter
}

func (m *MockStore) InTransaction(_ context.Context, _ func(tx r.OrderTx) error) error {
	return nil
}

func (m *MockStore) GetStoreBySlug(_ context.Context, slug string) (*domain.Store, error) {
	if m.Store == nil || m.Store.Slug != slug {
		return nil, r.ErrStoreNotFound
	}
	return m.Store, nil
}

func (m *MockStore) GetOrderByID(_ context.Context, _, id int64) (*domain.OrderWithItems, error) {
	if m.Order == nil || m.Order.ID != id {
		return nil, r.ErrOrderNotFound
	}
	return m.Order, nil
}

func (m *MockStore) ListOrders(_ context.Context, filter domain.OrderFilter) (*domain.OrderPage, error) {
	m.LastFilter = filter
	return m.Page, nil
}

func (m *MockStore) GetUserByToken(_ context.Context, token string) (*domain.User, error) {
	if m.User == nil || token != "good-token" {
		return nil, r.ErrUserNotFound
	}
	return m.User, nil
}

func (m *MockStore) ListActiveProducts(_ context.Context, _ int64) ([]domain.Product, error) {
	return m.Products, nil
}

// MockCache implements cache.FeedCache in memory.
type MockCache struct {
	Data map[string]string
	Sets int
}

func (m *MockCache) Get(_ context.Context, slug, feedType string) (string, error) {
	if body, ok := m.Data[slug+"/"+feedType]; ok {
		return body, nil
	}
	return "", cache.ErrCacheMiss
}

func (m *MockCache) Set(_ context.Context, slug, feedType, body string) error {
	if m.Data == nil {
		m.Data = map[string]string{}
	}
	m.Data[slug+"/"+feedType] = body
	m.Sets++
	return nil
}

func (m *MockCache) Delete(_ context.Context, slug, feedType string) error {
	delete(m.Data, slug+"/"+feedType)
	return nil
}

func testOrder() *domain.OrderWithItems {
	return &domain.OrderWithItems{
		Order: domain.Order{
			ID:              1,
			StoreID:         1,
			OrderNumber:     1000,
			OrderName:       "#1000",
			Email:           "dana@example.com",
			FinancialStatus: domain.FinancialStatusPending,
			PaymentMethod:   domain.PaymentMethodCash,
			TotalPrice:      120,
			Currency:        "ILS",
		},
		Items: []domain.LineItem{{ID: 1, Title: "Shirt", Quantity: 2, Price: 50}},
	}
}

func testRouter(svc *MockOrderService, store *MockStore, feedCache cache.FeedCache) http.Handler {
	logger := testLogger()
	return NewRouter(RouterConfig{
		Orders:         NewOrdersHandler(svc, store, logger),
		Checkout:       NewCheckoutHandler(svc, store, logger),
		Feeds:          NewFeedsHandler(store, feedCache, "https://shop.example.com", logger),
		Inventory:      NewInventoryHandler(nil, logger),
		Contacts:       NewContactsHandler(&MockContactStore{}, logger),
		Auth:           store,
		RequestTimeout: 5 * time.Second,
	})
}

type MockContactStore struct {
	Last *domain.Contact
}

func (m *MockContactStore) UpsertContact(_ context.Context, c *domain.Contact) (*domain.Contact, error) {
	m.Last = c
	c.ID = 11
	return c, nil
}

func authedRequest(method, target string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer good-token")
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateOrder_RequiresAuth(t *testing.T) {
	router := testRouter(&MockOrderService{}, &MockStore{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unauthorized", resp.Code)
}

func TestCreateOrder_StoreComesFromUser(t *testing.T) {
	svc := &MockOrderService{Order: testOrder()}
	store := &MockStore{User: &domain.User{ID: 9, StoreID: 3}}
	router := testRouter(svc, store, nil)

	body, _ := json.Marshal(map[string]any{
		"email":          "dana@example.com",
		"payment_method": "cash",
		"line_items":     []map[string]any{{"title": "Shirt", "quantity": 2, "price": 50}},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/orders", body))

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.LastInput)
	assert.Equal(t, int64(3), svc.LastInput.StoreID)
	assert.Equal(t, "dashboard", svc.LastInput.Source)
	require.NotNil(t, svc.LastInput.UserID)
	assert.Equal(t, int64(9), *svc.LastInput.UserID)
}

func TestCreateOrder_ValidationErrorIs400(t *testing.T) {
	svc := &MockOrderService{Err: service.ErrEmptyCart}
	store := &MockStore{User: &domain.User{ID: 9, StoreID: 3}}
	router := testRouter(svc, store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/orders", []byte(`{"email":"a@b.com"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_request", resp.Code)
}

func TestListOrders_FilterAndPaging(t *testing.T) {
	store := &MockStore{
		User: &domain.User{ID: 9, StoreID: 3},
		Page: &domain.OrderPage{Orders: []domain.OrderWithItems{*testOrder()}, Total: 1, Page: 2, Limit: 10, TotalPages: 1},
	}
	router := testRouter(&MockOrderService{}, store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet,
		"/api/orders?page=2&limit=10&financial_status=paid&search=dana", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), store.LastFilter.StoreID)
	assert.Equal(t, "paid", store.LastFilter.FinancialStatus)
	assert.Equal(t, "dana", store.LastFilter.Search)
	assert.Equal(t, 2, store.LastFilter.Page)
	assert.Equal(t, 10, store.LastFilter.Limit)
}

func TestListOrders_LimitClamped(t *testing.T) {
	store := &MockStore{
		User: &domain.User{ID: 9, StoreID: 3},
		Page: &domain.OrderPage{},
	}
	router := testRouter(&MockOrderService{}, store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/orders?limit=5000", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxPageLimit, store.LastFilter.Limit)
	assert.Equal(t, 1, store.LastFilter.Page)
}

func TestGetOrder_NotFound(t *testing.T) {
	store := &MockStore{User: &domain.User{ID: 9, StoreID: 3}}
	router := testRouter(&MockOrderService{}, store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/orders/42", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStorefrontCheckout_UnknownStore(t *testing.T) {
	router := testRouter(&MockOrderService{}, &MockStore{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/storefront/ghost/checkout", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStorefrontCheckout_UsesStoreCurrency(t *testing.T) {
	svc := &MockOrderService{Order: testOrder()}
	store := &MockStore{Store: &domain.Store{ID: 5, Slug: "demo", Name: "Demo", Currency: "USD"}}
	router := testRouter(svc, store, nil)

	body, _ := json.Marshal(map[string]any{
		"email":          "dana@example.com",
		"payment_method": "credit_card",
		"line_items":     []map[string]any{{"title": "Shirt", "quantity": 1, "price": 50}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/storefront/demo/checkout", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.LastInput)
	assert.Equal(t, int64(5), svc.LastInput.StoreID)
	assert.Equal(t, "USD", svc.LastInput.Currency)
	assert.Equal(t, "storefront", svc.LastInput.Source)
	assert.Nil(t, svc.LastInput.UserID)
}

func TestFeed_UnknownTypeIs404(t *testing.T) {
	router := testRouter(&MockOrderService{}, &MockStore{}, &MockCache{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feeds/demo/pinterest", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeed_CacheMissRendersAndBackfills(t *testing.T) {
	store := &MockStore{
		Store: &domain.Store{ID: 5, Slug: "demo", Name: "Demo", Currency: "ILS"},
		Products: []domain.Product{{
			ID:       10,
			Title:    "Shirt",
			Handle:   "shirt",
			Variants: []domain.Variant{{ID: 100, ProductID: 10, Price: 50, InventoryQuantity: 1}},
		}},
	}
	feedCache := &MockCache{}
	router := testRouter(&MockOrderService{}, store, feedCache)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feeds/demo/facebook", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "<g:id>10_100</g:id>")
	assert.Equal(t, 1, feedCache.Sets)
}

func TestFeed_CacheHitSkipsCatalog(t *testing.T) {
	feedCache := &MockCache{Data: map[string]string{"demo/google": "<cached/>"}}
	// nil store fields: any catalog access would 404, proving the hit path
	router := testRouter(&MockOrderService{}, &MockStore{}, feedCache)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feeds/demo/google", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<cached/>", rec.Body.String())
	assert.Equal(t, 0, feedCache.Sets)
}

func TestContacts_Upsert(t *testing.T) {
	contacts := &MockContactStore{}
	store := &MockStore{User: &domain.User{ID: 9, StoreID: 3}}
	logger := testLogger()
	router := NewRouter(RouterConfig{
		Orders:         NewOrdersHandler(&MockOrderService{}, store, logger),
		Checkout:       NewCheckoutHandler(&MockOrderService{}, store, logger),
		Feeds:          NewFeedsHandler(store, nil, "https://shop.example.com", logger),
		Inventory:      NewInventoryHandler(nil, logger),
		Contacts:       NewContactsHandler(contacts, logger),
		Auth:           store,
		RequestTimeout: 5 * time.Second,
	})

	body := []byte(`{"email":"lead@example.com","name":"Lead","phone":"050-1234567"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/contacts", body))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, contacts.Last)
	assert.Equal(t, int64(3), contacts.Last.StoreID)
	assert.Equal(t, "lead@example.com", contacts.Last.Email)
	assert.Equal(t, "manual", contacts.Last.Source)
}

func TestContacts_EmailRequired(t *testing.T) {
	store := &MockStore{User: &domain.User{ID: 9, StoreID: 3}}
	router := testRouter(&MockOrderService{}, store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/contacts", []byte(`{"name":"x"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInventoryImport_MissingFile(t *testing.T) {
	store := &MockStore{User: &domain.User{ID: 9, StoreID: 3}}
	router := testRouter(&MockOrderService{}, store, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("update_mode", "add"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/inventory/import", &buf)
	req.Header.Set("Authorization", "Bearer good-token")
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "missing_file", resp.Code)
}

func TestHealth(t *testing.T) {
	router := testRouter(&MockOrderService{}, &MockStore{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
