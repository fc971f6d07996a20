package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/itadmit/quickshop3-sub006/internal/domain"
)

func (r *Repository) GetStoreBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	query := `SELECT id, slug, name, currency, COALESCE(domain, '') FROM stores WHERE slug = $1`

	var s domain.Store
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&s.ID, &s.Slug, &s.Name, &s.Currency, &s.Domain)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query store by slug: %w", err)
	}
	return &s, nil
}

// GetUserByToken resolves a dashboard bearer token to its user. Tokens are
// stored hashed-equivalent opaque strings on the users table.
func (r *Repository) GetUserByToken(ctx context.Context, token string) (*domain.User, error) {
	query := `SELECT id, store_id, email FROM users WHERE api_token = $1`

	var u domain.User
	err := r.db.QueryRowContext(ctx, query, token).Scan(&u.ID, &u.StoreID, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user by token: %w", err)
	}
	return &u, nil
}
