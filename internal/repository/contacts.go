package repository

import (
	"context"
	"fmt"

	"github.com/itadmit/quickshop3-sub006/internal/domain"
)

// UpsertContact creates or refreshes a CRM contact keyed by (store, email).
func (r *Repository) UpsertContact(ctx context.Context, c *domain.Contact) (*domain.Contact, error) {
	query := `INSERT INTO contacts (store_id, email, name, phone, tags, source, created_at, updated_at)
	          VALUES ($1, lower($2), $3, $4, $5, $6, NOW(), NOW())
	          ON CONFLICT (store_id, email)
	          DO UPDATE SET
	              name  = COALESCE(NULLIF(EXCLUDED.name, ''), contacts.name),
	              phone = COALESCE(NULLIF(EXCLUDED.phone, ''), contacts.phone),
	              tags  = COALESCE(NULLIF(EXCLUDED.tags, ''), contacts.tags),
	              updated_at = NOW()
	          RETURNING id, store_id, email, name, phone, tags, source, created_at, updated_at`

	var out domain.Contact
	err := r.db.QueryRowContext(ctx, query,
		c.StoreID, c.Email, c.Name, c.Phone, c.Tags, c.Source,
	).Scan(
		&out.ID,
		&out.StoreID,
		&out.Email,
		&out.Name,
		&out.Phone,
		&out.Tags,
		&out.Source,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert contact: %w", err)
	}
	return &out, nil
}
