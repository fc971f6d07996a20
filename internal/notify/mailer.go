// Package notify sends the best-effort side effects of checkout: welcome
// emails, order confirmations and CRM contact sync. Calls go to an external
// HTTP service behind a circuit breaker, so a misbehaving provider degrades
// to logged failures instead of piling up blocked goroutines.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/itadmit/quickshop3-sub006/internal/domain"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Mailer struct {
	cfg     Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

func NewMailer(cfg Config) *Mailer {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "notify",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Mailer{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

func (m *Mailer) SendWelcomeEmail(ctx context.Context, storeID int64, email string) error {
	return m.post(ctx, "/v1/emails/welcome", map[string]any{
		"store_id": storeID,
		"email":    email,
	})
}

func (m *Mailer) SyncContact(ctx context.Context, storeID int64, customer *domain.Customer) error {
	return m.post(ctx, "/v1/contacts/sync", map[string]any{
		"store_id":   storeID,
		"email":      customer.Email,
		"first_name": customer.FirstName,
		"last_name":  customer.LastName,
		"phone":      customer.Phone,
	})
}

func (m *Mailer) SendOrderConfirmation(ctx context.Context, storeID int64, order *domain.OrderWithItems) error {
	items := make([]map[string]any, 0, len(order.Items))
	for _, li := range order.Items {
		items = append(items, map[string]any{
			"title":    li.Title,
			"quantity": li.Quantity,
			"price":    li.Price,
		})
	}
	return m.post(ctx, "/v1/emails/order-confirmation", map[string]any{
		"store_id":    storeID,
		"email":       order.Email,
		"order_name":  order.OrderName,
		"total_price": order.TotalPrice,
		"currency":    order.Currency,
		"line_items":  items,
	})
}

func (m *Mailer) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal notify payload: %w", err)
	}

	resp, err := m.breaker.Execute(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if m.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
		}

		resp, err := m.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("notify service returned %d", resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
