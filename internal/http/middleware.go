package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/itadmit/quickshop3-sub006/internal/domain"
)

type ctxKey int

const userKey ctxKey = iota

// TokenResolver resolves a dashboard API token to its user.
type TokenResolver interface {
	GetUserByToken(ctx context.Context, token string) (*domain.User, error)
}

// BearerAuth guards the dashboard API. The resolved user (and thereby the
// store it belongs to) is placed on the request context; handlers never trust
// a store id from the payload.
func BearerAuth(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			header := req.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respondError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			user, err := resolver.GetUserByToken(req.Context(), token)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}

			ctx := context.WithValue(req.Context(), userKey, user)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

func userFrom(req *http.Request) *domain.User {
	user, _ := req.Context().Value(userKey).(*domain.User)
	return user
}
