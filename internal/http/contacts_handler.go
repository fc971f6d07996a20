package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/itadmit/quickshop3-sub006/internal/domain"
)

type ContactStore interface {
	UpsertContact(ctx context.Context, c *domain.Contact) (*domain.Contact, error)
}

type ContactsHandler struct {
	store  ContactStore
	logger *slog.Logger
}

func NewContactsHandler(store ContactStore, logger *slog.Logger) *ContactsHandler {
	return &ContactsHandler{store: store, logger: logger}
}

type upsertContactRequest struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Tags   string `json:"tags"`
	Source string `json:"source"`
}

type contactResponse struct {
	ID      int64  `json:"id"`
	StoreID int64  `json:"store_id"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Tags    string `json:"tags,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Upsert creates or refreshes a CRM contact, keyed by (store, email).
func (h *ContactsHandler) Upsert(w http.ResponseWriter, req *http.Request) {
	user := userFrom(req)

	var body upsertContactRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	body.Email = strings.TrimSpace(body.Email)
	if body.Email == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}
	if body.Source == "" {
		body.Source = "manual"
	}

	contact, err := h.store.UpsertContact(req.Context(), &domain.Contact{
		StoreID: user.StoreID,
		Email:   body.Email,
		Name:    body.Name,
		Phone:   body.Phone,
		Tags:    body.Tags,
		Source:  body.Source,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, contactResponse{
		ID:      contact.ID,
		StoreID: contact.StoreID,
		Email:   contact.Email,
		Name:    contact.Name,
		Phone:   contact.Phone,
		Tags:    contact.Tags,
		Source:  contact.Source,
	})
}
