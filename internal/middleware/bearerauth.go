// Package middleware provides HTTP middlewares for authentication and
// logging, on both the handler side and the client (RoundTripper) side.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type ctxKey string

const userKey ctxKey = "user"

// TokenValidator checks a bearer token and returns the subject it was issued to.
type TokenValidator func(token string) (string, error)

// BearerAuth is a middleware that enforces bearer-token authentication.
//
// It reads the "Authorization: Bearer <token>" header and validates the token.
// A missing or invalid token is answered with 401 and the JSON body
// {"error":"Invalid token"}. On success the token subject is stored in the
// request context, so it can be used downstream as the authenticated user ID.
func BearerAuth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeInvalidToken(w)
				return
			}
			sub, err := validate(token)
			if err != nil {
				writeInvalidToken(w)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeInvalidToken(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid token"})
}

// GetUserIDFromContext extracts the user ID (token subject) from the request
// context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
