package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/ghoulgame/internal/api/apierr"
	"github.com/mcoot/ghoulgame/internal/model"
	"github.com/mcoot/ghoulgame/internal/services/auth"
)

type contextKey string

const (
	connectionContextKey contextKey = "connection"
	tokenContextKey      contextKey = "token"
)

// Connections reports whether a connection is still open and marks it active
type Connections interface {
	Touch(conn model.ConnectionID) error
}

// Auth creates authentication middleware. The bearer token must be valid and name a
// connection the gateway still holds.
func Auth(authService *auth.Service, connections Connections) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			conn, err := authService.ValidateToken(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}
			if err := connections.Touch(conn); err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, connectionContextKey, conn)
			ctx = context.WithValue(ctx, tokenContextKey, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the connection token from the request
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// EventSource cannot set headers, so the event stream also accepts a query parameter
	return r.URL.Query().Get("token")
}

// GetConnection returns the authenticated connection from the request context
func GetConnection(ctx context.Context) (model.ConnectionID, bool) {
	conn, ok := ctx.Value(connectionContextKey).(model.ConnectionID)
	return conn, ok
}

// GetToken returns the bearer token from the request context
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// MustGetConnection returns the authenticated connection or panics
func MustGetConnection(ctx context.Context) model.ConnectionID {
	conn, ok := GetConnection(ctx)
	if !ok {
		panic("no connection in context - auth middleware not applied?")
	}
	return conn
}
