package middleware

import (
	"context"
	"net/http"

	"github.com/mcoot/arcade/internal/model"
	"github.com/mcoot/arcade/internal/web/session"
)

type contextKey string

const userContextKey contextKey = "user"

// Resolver maps a session credential to a user
type Resolver interface {
	Resolve(ctx context.Context, token string) (*model.User, bool)
}

// GetUser retrieves the authenticated user from the request context.
// Returns nil if no user is authenticated.
func GetUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

// OptionalAuth resolves the session cookie if present but doesn't require it
func OptionalAuth(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := session.Token(r); token != "" {
				if user, ok := resolver.Resolve(r.Context(), token); ok {
					r = r.WithContext(context.WithValue(r.Context(), userContextKey, user))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
