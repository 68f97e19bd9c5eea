// Package auth decides whether the stored session is still valid and
// attaches the session token to authenticated requests.
package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/atinyakov/GophChat/internal/logger"
	"github.com/atinyakov/GophChat/internal/models"
	"go.uber.org/zap"
)

// TokenSource exposes the stored session cookie. The gate only reads it.
type TokenSource interface {
	Token(name string) (string, bool)
}

// StatusChecker asks the authentication service whether a token is valid.
type StatusChecker interface {
	Check(ctx context.Context, token string) (int, error)
}

// Doer sends HTTP requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RedirectError is returned by Fetch when the user must log in again.
type RedirectError struct {
	Location string
}

func (e *RedirectError) Error() string {
	return "redirect to " + e.Location
}

// Gate guards screens and requests that need a valid session.
type Gate struct {
	tokens  TokenSource
	checker StatusChecker
	client  Doer
	log     *zap.Logger
}

// NewGate creates a Gate. client is used by Fetch and may be nil when
// Fetch is not needed.
func NewGate(tokens TokenSource, checker StatusChecker, client Doer, log *zap.Logger) *Gate {
	return &Gate{tokens: tokens, checker: checker, client: client, log: logger.OrNop(log)}
}

// IsAuthenticated reports whether the stored session token is accepted by
// the service. Any failure counts as not authenticated.
func (g *Gate) IsAuthenticated(ctx context.Context) bool {
	token, ok := g.tokens.Token(models.SessionCookie)
	if !ok {
		return false
	}

	status, err := g.checker.Check(ctx, token)
	if err != nil {
		g.log.Warn("session check failed", zap.Error(err))
		return false
	}
	if status == http.StatusUnauthorized {
		return false
	}
	return status >= 200 && status < 300
}

// Protect returns the login route when the user is not authenticated, ""
// when the protected screen may be shown.
func (g *Gate) Protect(ctx context.Context) string {
	if g.IsAuthenticated(ctx) {
		return ""
	}
	return models.RouteLogin
}

// GuestOnly returns the chat route when the user is already
// authenticated, "" when the login or registration screen may be shown.
func (g *Gate) GuestOnly(ctx context.Context) string {
	if g.IsAuthenticated(ctx) {
		return models.RouteChat
	}
	return ""
}

// Fetch sends a request carrying the session token as bearer credential.
// A missing token or a 401 answer yields *RedirectError to the login route.
func (g *Gate) Fetch(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	token, ok := g.tokens.Token(models.SessionCookie)
	if !ok {
		return nil, &RedirectError{Location: models.RouteLogin}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &RedirectError{Location: models.RouteLogin}
	}
	return resp, nil
}
