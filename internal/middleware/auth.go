package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vinspect/vinspectgo/internal/utils"
)

type contextKey string

const UserContextKey contextKey = "user"

// Auth returns a middleware verifying Bearer JWT tokens
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			// Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := utils.ValidateToken(parts[1], secret)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a handler to callers holding one of the given roles
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, role := Identity(r)
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Insufficient permissions", http.StatusForbidden)
		})
	}
}

// Claims extracts the JWT claims stored by Auth, nil when absent
func Claims(r *http.Request) jwt.MapClaims {
	claims, _ := r.Context().Value(UserContextKey).(jwt.MapClaims)
	return claims
}

// Identity returns the caller's user ID and role from the request context
func Identity(r *http.Request) (userID, role string) {
	claims := Claims(r)
	if claims == nil {
		return "", ""
	}
	userID, _ = claims["id"].(string)
	role, _ = claims["role"].(string)
	return userID, role
}
