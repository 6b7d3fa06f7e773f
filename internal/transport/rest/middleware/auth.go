package middleware

import (
	"context"
	"net/http"
	"strings"

	"typerace/internal/model"
)

type contextKey string

const (
	UserIDKey   contextKey = "userId"
	UsernameKey contextKey = "username"
)

// TokenValidator checks a bearer token and returns its claims
type TokenValidator interface {
	ValidateToken(token string) (*model.UserClaims, error)
}

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	auth TokenValidator
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(auth TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// RequireAuth validates the bearer token and stores the user in the request context
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.auth.ValidateToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.ID)
		ctx = context.WithValue(ctx, UsernameKey, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID extracts the user ID from context
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(UserIDKey).(string); ok {
		return v
	}
	return ""
}

// GetUsername extracts the username from context
func GetUsername(ctx context.Context) string {
	if v, ok := ctx.Value(UsernameKey).(string); ok {
		return v
	}
	return ""
}

// ExtractToken reads a bearer token from the Authorization header, falling
// back to the token query parameter used by WebSocket clients
func ExtractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
