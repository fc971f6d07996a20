package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/itadmit/quickshop3-sub006/internal/domain"
	r "github.com/itadmit/quickshop3-sub006/internal/repository"
	"github.com/itadmit/quickshop3-sub006/internal/service"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type OrdersHandler struct {
	service service.OrderService
	store   r.OrderStore
	logger  *slog.Logger
}

func NewOrdersHandler(svc service.OrderService, store r.OrderStore, logger *slog.Logger) *OrdersHandler {
	return &OrdersHandler{service: svc, store: store, logger: logger}
}

// Create handles manual order creation from the dashboard. The store comes
// from the authenticated user, never from the payload.
func (h *OrdersHandler) Create(w http.ResponseWriter, req *http.Request) {
	user := userFrom(req)

	var body createOrderRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	in := body.toInput(user.StoreID, "dashboard", &user.ID)
	order, err := h.service.CreateOrder(req.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.logger.Info("order created",
		"store_id", user.StoreID, "order_id", order.ID, "order_name", order.OrderName)
	respondJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *OrdersHandler) List(w http.ResponseWriter, req *http.Request) {
	user := userFrom(req)
	q := req.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	filter := domain.OrderFilter{
		StoreID:           user.StoreID,
		FinancialStatus:   q.Get("financial_status"),
		FulfillmentStatus: q.Get("fulfillment_status"),
		Search:            q.Get("search"),
		Page:              page,
		Limit:             limit,
	}

	result, err := h.store.ListOrders(req.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderListResponse(result))
}

func (h *OrdersHandler) Get(w http.ResponseWriter, req *http.Request) {
	user := userFrom(req)

	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", "order id must be numeric")
		return
	}

	order, err := h.store.GetOrderByID(req.Context(), user.StoreID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}
