package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/atinyakov/GophChat/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens map[string]string

func (f fakeTokens) Token(name string) (string, bool) {
	v, ok := f[name]
	return v, ok
}

type fakeChecker struct {
	status int
	err    error
	calls  int
	token  string
}

func (f *fakeChecker) Check(ctx context.Context, token string) (int, error) {
	f.calls++
	f.token = token
	return f.status, f.err
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestGate_IsAuthenticated(t *testing.T) {
	tests := []struct {
		name      string
		tokens    fakeTokens
		checker   *fakeChecker
		want      bool
		wantCalls int
	}{
		{"no cookie, no network", fakeTokens{}, &fakeChecker{status: 200}, false, 0},
		{"valid", fakeTokens{models.SessionCookie: "t"}, &fakeChecker{status: 200}, true, 1},
		{"no content is success", fakeTokens{models.SessionCookie: "t"}, &fakeChecker{status: 204}, true, 1},
		{"unauthorized", fakeTokens{models.SessionCookie: "t"}, &fakeChecker{status: 401}, false, 1},
		{"server error", fakeTokens{models.SessionCookie: "t"}, &fakeChecker{status: 500}, false, 1},
		{"redirect status", fakeTokens{models.SessionCookie: "t"}, &fakeChecker{status: 302}, false, 1},
		{"transport failure", fakeTokens{models.SessionCookie: "t"}, &fakeChecker{err: errors.New("refused")}, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(tt.tokens, tt.checker, nil, nil)
			assert.Equal(t, tt.want, g.IsAuthenticated(context.Background()))
			assert.Equal(t, tt.wantCalls, tt.checker.calls)
		})
	}
}

func TestGate_ProtectAndGuestOnly(t *testing.T) {
	authed := NewGate(fakeTokens{models.SessionCookie: "t"}, &fakeChecker{status: 200}, nil, nil)
	assert.Equal(t, "", authed.Protect(context.Background()))
	assert.Equal(t, models.RouteChat, authed.GuestOnly(context.Background()))

	guest := NewGate(fakeTokens{}, &fakeChecker{}, nil, nil)
	assert.Equal(t, models.RouteLogin, guest.Protect(context.Background()))
	assert.Equal(t, "", guest.GuestOnly(context.Background()))
}

func TestGate_Fetch(t *testing.T) {
	var seen *http.Request
	client := doerFunc(func(req *http.Request) (*http.Response, error) {
		seen = req
		if req.Header.Get("Authorization") == "Bearer expired" {
			return response(http.StatusUnauthorized, `{"error":"Invalid token"}`), nil
		}
		return response(http.StatusOK, `{"ok":true}`), nil
	})

	t.Run("missing token redirects without request", func(t *testing.T) {
		seen = nil
		g := NewGate(fakeTokens{}, &fakeChecker{}, client, nil)
		_, err := g.Fetch(context.Background(), http.MethodGet, "http://svc/check", nil)

		var redirect *RedirectError
		require.ErrorAs(t, err, &redirect)
		assert.Equal(t, models.RouteLogin, redirect.Location)
		assert.Nil(t, seen)
	})

	t.Run("401 redirects", func(t *testing.T) {
		g := NewGate(fakeTokens{models.SessionCookie: "expired"}, &fakeChecker{}, client, nil)
		_, err := g.Fetch(context.Background(), http.MethodGet, "http://svc/check", nil)

		var redirect *RedirectError
		require.ErrorAs(t, err, &redirect)
		assert.Equal(t, "redirect to /login", err.Error())
	})

	t.Run("attaches bearer and content type", func(t *testing.T) {
		g := NewGate(fakeTokens{models.SessionCookie: "good"}, &fakeChecker{}, client, nil)
		resp, err := g.Fetch(context.Background(), http.MethodPost, "http://svc/data", strings.NewReader("{}"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Bearer good", seen.Header.Get("Authorization"))
		assert.Equal(t, "application/json", seen.Header.Get("Content-Type"))
	})

	t.Run("transport error is returned", func(t *testing.T) {
		failing := doerFunc(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("refused")
		})
		g := NewGate(fakeTokens{models.SessionCookie: "good"}, &fakeChecker{}, failing, nil)
		_, err := g.Fetch(context.Background(), http.MethodGet, "http://svc/check", nil)
		require.Error(t, err)

		var redirect *RedirectError
		assert.False(t, errors.As(err, &redirect))
	})
}

func TestSubject(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice@example.com"}).
		SignedString([]byte("any-key"))
	require.NoError(t, err)

	sub, ok := Subject(token)
	assert.True(t, ok)
	assert.Equal(t, "alice@example.com", sub)

	_, ok = Subject("not-a-jwt")
	assert.False(t, ok)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"name": "x"}).
		SignedString([]byte("any-key"))
	require.NoError(t, err)
	_, ok = Subject(noSub)
	assert.False(t, ok)
}
