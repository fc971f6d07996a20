package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/itadmit/quickshop3-sub006/internal/cache"
	"github.com/itadmit/quickshop3-sub006/internal/domain"
	"github.com/itadmit/quickshop3-sub006/internal/feed"
)

// ProductCatalog is what feed rendering needs from persistence.
type ProductCatalog interface {
	GetStoreBySlug(ctx context.Context, slug string) (*domain.Store, error)
	ListActiveProducts(ctx context.Context, storeID int64) ([]domain.Product, error)
}

type FeedsHandler struct {
	catalog ProductCatalog
	cache   cache.FeedCache
	logger  *slog.Logger

	// storefrontBase is the root under which slug-addressed storefronts live,
	// used when a store has no custom domain.
	storefrontBase string
}

func NewFeedsHandler(catalog ProductCatalog, feedCache cache.FeedCache, storefrontBase string, logger *slog.Logger) *FeedsHandler {
	return &FeedsHandler{
		catalog:        catalog,
		cache:          feedCache,
		logger:         logger,
		storefrontBase: storefrontBase,
	}
}

// Get serves a rendered feed document. Hits are served straight from the
// cache; misses render from the catalog and backfill it. The Cache-Control
// max-age matches the cache TTL, so crawlers and the cache expire together.
func (h *FeedsHandler) Get(w http.ResponseWriter, req *http.Request) {
	slug := chi.URLParam(req, "storeSlug")
	feedType, ok := feed.ParseType(chi.URLParam(req, "feedType"))
	if !ok {
		respondError(w, http.StatusNotFound, "unknown_feed", "unknown feed type")
		return
	}

	if h.cache != nil {
		body, err := h.cache.Get(req.Context(), slug, string(feedType))
		if err == nil {
			h.writeFeed(w, body)
			return
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn("feed cache read failed", "store", slug, "feed", feedType, "error", err)
		}
	}

	store, err := h.catalog.GetStoreBySlug(req.Context(), slug)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	products, err := h.catalog.ListActiveProducts(req.Context(), store.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	body := feed.Build(feedType, store, products, h.baseURL(store), time.Now())

	if h.cache != nil {
		if err := h.cache.Set(req.Context(), slug, string(feedType), body); err != nil {
			h.logger.Warn("feed cache write failed", "store", slug, "feed", feedType, "error", err)
		}
	}
	h.writeFeed(w, body)
}

func (h *FeedsHandler) writeFeed(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

func (h *FeedsHandler) baseURL(store *domain.Store) string {
	if store.Domain != "" {
		return "https://" + store.Domain
	}
	return h.storefrontBase + "/" + store.Slug
}
