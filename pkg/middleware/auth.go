// Package middleware provides HTTP middleware for authentication, request
// logging, and rate limiting.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taskdesk/taskdesk/pkg/auth"
	"github.com/taskdesk/taskdesk/pkg/contextkeys"
	"github.com/taskdesk/taskdesk/pkg/policy"
)

// AuthMiddleware resolves bearer tokens into an explicit policy.Identity on
// the request context. Handlers never reach for an ambient "current user";
// they read the identity value this middleware attached.
type AuthMiddleware struct {
	tokens   *auth.TokenManager
	optional bool // If true, requests without a token pass through unauthenticated
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokens *auth.TokenManager, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:   tokens,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			m.unauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.unauthorized(w, "invalid authorization header format")
			return
		}

		user, err := m.tokens.Validate(r.Context(), parts[1])
		if err != nil {
			m.unauthorized(w, "invalid or expired token")
			return
		}

		identity := policy.Identity{UserID: user.ID, IsAdmin: user.IsAdmin}
		ctx := context.WithValue(r.Context(), contextkeys.IdentityKey, identity)
		ctx = context.WithValue(ctx, contextkeys.UserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

// GetIdentity extracts the caller's identity from the request. The zero
// Identity means unauthenticated.
func GetIdentity(r *http.Request) policy.Identity {
	if id, ok := r.Context().Value(contextkeys.IdentityKey).(policy.Identity); ok {
		return id
	}
	return policy.Identity{}
}

// GetUser extracts the authenticated user from the request, nil when absent
func GetUser(r *http.Request) *auth.User {
	if user, ok := r.Context().Value(contextkeys.UserKey).(*auth.User); ok {
		return user
	}
	return nil
}
