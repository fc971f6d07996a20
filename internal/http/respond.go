package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	r "github.com/itadmit/quickshop3-sub006/internal/repository"
	"github.com/itadmit/quickshop3-sub006/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps pipeline and repository errors onto the HTTP error
// contract: 400 invalid input, 404 unknown resources, 500 otherwise.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrMissingEmail),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrNegativeAmount):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, r.ErrGiftCardNotFound),
		errors.Is(err, r.ErrGiftCardExpired):
		respondError(w, http.StatusBadRequest, "invalid_gift_card", err.Error())
	case errors.Is(err, r.ErrStoreNotFound):
		respondError(w, http.StatusNotFound, "store_not_found", err.Error())
	case errors.Is(err, r.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
