// Package api issues the HTTP calls to the authentication service:
// login, registration and session status.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/atinyakov/GophChat/internal/autherr"
	"github.com/atinyakov/GophChat/internal/logger"
	"github.com/atinyakov/GophChat/internal/models"
	"go.uber.org/zap"
)

const (
	pathAuthorize = "/authorize"
	pathRegister  = "/register"
	pathCheck     = "/check"
)

// AuthorizeResponse is the success body of POST /authorize.
type AuthorizeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Client talks to the authentication service.
type Client struct {
	baseURL string
	// withCookies carries the cookie jar; used where the browser would send
	// credentials: include.
	withCookies *http.Client
	// plain never attaches or stores cookies.
	plain *http.Client
	log   *zap.Logger
}

// NewClient returns a Client for the service at baseURL. withCookies must
// have the cookie jar set; plain must not.
func NewClient(baseURL string, withCookies, plain *http.Client, log *zap.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		withCookies: withCookies,
		plain:       plain,
		log:         logger.OrNop(log),
	}
}

// URL resolves a service path against the base URL.
func (c *Client) URL(path string) string {
	return c.baseURL + path
}

// Authorize posts the credentials to /authorize with cookies enabled, so the
// session cookie set by the service lands in the jar. A non-2xx answer is
// returned as *autherr.APIError; a network failure or a success body that is
// not JSON as *autherr.TransportError.
func (c *Client) Authorize(ctx context.Context, creds models.Credentials) (*AuthorizeResponse, error) {
	resp, err := c.postJSON(ctx, c.withCookies, pathAuthorize, creds)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var out AuthorizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &autherr.TransportError{Op: "decode", Err: err}
	}
	return &out, nil
}

// Register posts the credentials to /register without cookies.
func (c *Client) Register(ctx context.Context, creds models.Credentials) error {
	resp, err := c.postJSON(ctx, c.plain, pathRegister, creds)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	defer io.Copy(io.Discard, resp.Body) //nolint:errcheck

	return checkStatus(resp)
}

// Check calls GET /check with the token as bearer credential and reports the
// response status.
func (c *Client) Check(ctx context.Context, token string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(pathCheck), nil)
	if err != nil {
		return 0, fmt.Errorf("build check request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.plain.Do(req)
	if err != nil {
		return 0, &autherr.TransportError{Op: "check", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// Do sends an arbitrary request through the cookie-less client. It is the
// transport used by authenticated fetches that attach the bearer themselves.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.plain.Do(req)
}

func (c *Client) postJSON(ctx context.Context, hc *http.Client, path string, payload any) (*http.Response, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path), bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		c.log.Warn("auth service unreachable", zap.String("path", path), zap.Error(err))
		return nil, &autherr.TransportError{Op: strings.TrimPrefix(path, "/"), Err: err}
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &autherr.TransportError{Op: "read error response", Err: err}
	}
	return &autherr.APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
