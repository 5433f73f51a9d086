package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"cart-ratings-backend/internal/services"
)

type contextKey string

const authorIDKey contextKey = "author_id"

// AuthMiddleware creates a middleware for JWT authentication. The
// author id carried in the token scopes every rating write.
func AuthMiddleware(userService *services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			token := parts[1]
			authorID, err := userService.ValidateJWT(token)
			if err != nil {
				respondError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), authorIDKey, authorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAuthorID extracts the authenticated author id from context
func GetAuthorID(ctx context.Context) string {
	authorID, ok := ctx.Value(authorIDKey).(string)
	if !ok {
		return ""
	}
	return authorID
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

// ValidateWebSocketToken validates JWT token from WebSocket query parameter
func ValidateWebSocketToken(token string, userService *services.UserService) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token required")
	}
	return userService.ValidateJWT(token)
}
