// Package http provides the HTTP handlers of the local chat service:
// registration, login, session check and the chat websocket.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/atinyakov/GophChat/internal/middleware"
	"github.com/atinyakov/GophChat/internal/models"
	"github.com/atinyakov/GophChat/internal/service"
	"go.uber.org/zap"
)

// AuthService defines the authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Register creates an account.
	Register(ctx context.Context, creds models.Credentials) error
	// Authorize checks credentials and returns a session token.
	Authorize(ctx context.Context, creds models.Credentials) (string, error)
	// TTL is the lifetime of issued tokens.
	TTL() time.Duration
}

// AuthHandler handles HTTP requests for user registration and login.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	// Log receives handler failures. May be nil.
	Log *zap.Logger
}

// statusByCode maps service error codes to HTTP statuses.
var statusByCode = map[string]int{
	service.CodeWrongCredentials:   http.StatusUnauthorized,
	service.CodeMissingCredentials: http.StatusBadRequest,
	service.CodeInvalidToken:       http.StatusUnauthorized,
	service.CodeTokenCreation:      http.StatusInternalServerError,
	service.CodeUserExists:         http.StatusConflict,
	service.CodeDatabase:           http.StatusInternalServerError,
	service.CodePasswordProcessing: http.StatusInternalServerError,
}

// Register handles account creation.
// It expects a JSON body {"email","password"}; both must be non-empty.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.AuthService.Register(r.Context(), creds); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "User registered successfully",
	})
}

// Authorize handles login. On success the session token is set as the
// auth_token cookie and a JSON status body is returned.
func (h *AuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	token, err := h.AuthService.Authorize(r.Context(), creds)
	if err != nil {
		h.writeError(w, err)
		return
	}

	ttl := h.AuthService.TTL()
	http.SetCookie(w, &http.Cookie{
		Name:     models.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Authentication successful",
	})
}

// Check answers requests that passed BearerAuth with the token subject.
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "Welcome to the protected area :)\nYour data:\nEmail: %s",
		middleware.GetUserIDFromContext(r.Context()))
}

func (h *AuthHandler) writeError(w http.ResponseWriter, err error) {
	code := service.CodeDatabase
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		code = svcErr.Code
	}
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError && h.Log != nil {
		h.Log.Error("auth request failed", zap.String("code", code), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": code})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
