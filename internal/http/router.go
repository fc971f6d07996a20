package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Orders    *OrdersHandler
	Checkout  *CheckoutHandler
	Feeds     *FeedsHandler
	Inventory *InventoryHandler
	Contacts  *ContactsHandler

	Auth           TokenResolver
	RequestTimeout time.Duration
}

// NewRouter wires the public surface. Storefront checkout and feeds are
// unauthenticated; everything else requires a dashboard bearer token.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/storefront/{storeSlug}/checkout", cfg.Checkout.Create)
	r.Get("/api/feeds/{storeSlug}/{feedType}", cfg.Feeds.Get)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(cfg.Auth))

		r.Route("/api/orders", func(r chi.Router) {
			r.Post("/", cfg.Orders.Create)
			r.Get("/", cfg.Orders.List)
			r.Get("/{id}", cfg.Orders.Get)
		})
		r.Post("/api/contacts", cfg.Contacts.Upsert)
		r.Post("/api/inventory/import", cfg.Inventory.Import)
	})

	return r
}
