package middleware

import (
	"context"
	"net/http"

	"github.com/mcoot/arcade/internal/api/apierr"
	"github.com/mcoot/arcade/internal/model"
	"github.com/mcoot/arcade/internal/web/session"
)

type contextKey string

const userContextKey contextKey = "user"

// Resolver maps a session credential to a user
type Resolver interface {
	Resolve(ctx context.Context, token string) (*model.User, bool)
}

// Auth creates middleware that rejects requests without a resolvable credential
func Auth(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := session.Token(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			user, ok := resolver.Resolve(r.Context(), token)
			if !ok {
				apierr.WriteError(w, apierr.NewUnauthorizedErrorWithMessage("Invalid session"))
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser returns the authenticated user from the request context
func GetUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

// MustGetUser returns the authenticated user or panics
func MustGetUser(ctx context.Context) *model.User {
	user := GetUser(ctx)
	if user == nil {
		panic("no user in context - auth middleware not applied?")
	}
	return user
}
