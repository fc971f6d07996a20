package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itadmit/quickshop3-sub006/internal/domain"
)

func TestMailer_SendOrderConfirmation(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewMailer(Config{BaseURL: srv.URL, APIKey: "secret"})

	order := &domain.OrderWithItems{
		Order: domain.Order{
			Email:      "dana@example.com",
			OrderName:  "#1000",
			TotalPrice: 120,
			Currency:   "ILS",
		},
		Items: []domain.LineItem{{Title: "Shirt", Quantity: 2, Price: 50}},
	}
	require.NoError(t, m.SendOrderConfirmation(context.Background(), 1, order))

	assert.Equal(t, "/v1/emails/order-confirmation", gotPath)
	assert.Equal(t, "#1000", gotBody["order_name"])
	assert.Equal(t, "dana@example.com", gotBody["email"])
	items, ok := gotBody["line_items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 1)
}

func TestMailer_ServerErrorIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	m := NewMailer(Config{BaseURL: srv.URL})
	err := m.SendWelcomeEmail(context.Background(), 1, "dana@example.com")
	assert.Error(t, err)
}

func TestMailer_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := NewMailer(Config{BaseURL: srv.URL})
	for i := 0; i < 10; i++ {
		_ = m.SendWelcomeEmail(context.Background(), 1, "dana@example.com")
	}

	// after five consecutive failures the breaker short-circuits the rest
	assert.Equal(t, 5, calls)
}
