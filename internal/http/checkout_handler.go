package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	r "github.com/itadmit/quickshop3-sub006/internal/repository"
	"github.com/itadmit/quickshop3-sub006/internal/service"
)

type CheckoutHandler struct {
	service service.OrderService
	store   r.OrderStore
	logger  *slog.Logger
}

func NewCheckoutHandler(svc service.OrderService, store r.OrderStore, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, store: store, logger: logger}
}

// Create is the public storefront checkout. The store is addressed by slug
// and there is no authenticated user.
func (h *CheckoutHandler) Create(w http.ResponseWriter, req *http.Request) {
	store, err := h.store.GetStoreBySlug(req.Context(), chi.URLParam(req, "storeSlug"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var body createOrderRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if body.Currency == "" {
		body.Currency = store.Currency
	}

	order, err := h.service.CreateOrder(req.Context(), body.toInput(store.ID, "storefront", nil))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.logger.Info("storefront checkout completed",
		"store_id", store.ID, "order_id", order.ID, "order_name", order.OrderName)
	respondJSON(w, http.StatusCreated, toOrderResponse(order))
}
