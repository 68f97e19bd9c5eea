package storage

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func newTestStore(t *testing.T) (*CookieStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cookies.json")
	s, err := NewCookieStore(path, nil)
	if err != nil {
		t.Fatalf("NewCookieStore: %v", err)
	}
	return s, path
}

func names(cookies []*http.Cookie) []string {
	out := make([]string, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, c.Name+"="+c.Value)
	}
	return out
}

func TestNewCookieStore_FileNotExist(t *testing.T) {
	s, _ := newTestStore(t)
	if _, ok := s.Token("auth_token"); ok {
		t.Error("expected no token in empty store")
	}
}

func TestNewCookieStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewCookieStore(path, nil); err == nil {
		t.Error("expected decode error")
	}
}

func TestSetCookies_PersistsAndServes(t *testing.T) {
	s, path := newTestStore(t)
	u := mustURL(t, "https://localhost:3001/authorize")

	s.SetCookies(u, []*http.Cookie{{
		Name:     "auth_token",
		Value:    "jwt",
		Path:     "/",
		Secure:   true,
		HttpOnly: true,
		MaxAge:   3600,
	}})

	// read back from disk
	reloaded, err := NewCookieStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if tok, ok := reloaded.Token("auth_token"); !ok || tok != "jwt" {
		t.Errorf("reloaded token = %q, %v", tok, ok)
	}

	if got := s.Cookies(mustURL(t, "https://localhost:3001/check")); len(got) != 1 || got[0].Value != "jwt" {
		t.Errorf("Cookies(localhost) = %v", names(got))
	}
	if got := s.Cookies(mustURL(t, "https://example.com/check")); len(got) != 0 {
		t.Errorf("Cookies(example.com) = %v; want none", names(got))
	}
}

func TestCookies_SecureNeedsHTTPS(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetCookies(mustURL(t, "https://auth.example.com/"), []*http.Cookie{{Name: "auth_token", Value: "x", Secure: true}})

	if got := s.Cookies(mustURL(t, "http://auth.example.com/")); len(got) != 0 {
		t.Errorf("secure cookie leaked over http: %v", names(got))
	}
	if got := s.Cookies(mustURL(t, "https://auth.example.com/")); len(got) != 1 {
		t.Errorf("secure cookie missing over https: %v", names(got))
	}
	// the token is still readable for the bearer header
	if tok, ok := s.Token("auth_token"); !ok || tok != "x" {
		t.Errorf("Token = %q, %v", tok, ok)
	}
}

func TestCookies_PathMatch(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetCookies(mustURL(t, "http://localhost:3001/chat"), []*http.Cookie{{Name: "auth_token", Value: "t", Path: "/chat"}})

	tests := []struct {
		path string
		want int
	}{
		{"/chat", 1},
		{"/chat/", 1},
		{"/chat/room", 1},
		{"/chatroom", 0},
		{"/", 0},
	}
	for _, tt := range tests {
		got := s.Cookies(mustURL(t, "http://localhost:3001"+tt.path))
		if len(got) != tt.want {
			t.Errorf("Cookies(%s) = %v; want %d cookie(s)", tt.path, names(got), tt.want)
		}
	}
}

func TestSetCookies_PublicSuffixDomainRejected(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetCookies(mustURL(t, "https://www.example.co.uk/"), []*http.Cookie{{Name: "wide", Value: "1", Domain: "co.uk"}})

	if got := s.Cookies(mustURL(t, "https://other.co.uk/")); len(got) != 0 {
		t.Errorf("cookie for a public suffix was accepted: %v", names(got))
	}
}

func TestSetCookies_ExpiryAndRemoval(t *testing.T) {
	s, _ := newTestStore(t)
	u := mustURL(t, "http://localhost:3001/")

	s.SetCookies(u, []*http.Cookie{{Name: "auth_token", Value: "a", MaxAge: 60}})
	if tok, ok := s.Token("auth_token"); !ok || tok != "a" {
		t.Fatalf("Token = %q, %v; want a", tok, ok)
	}

	s.SetCookies(u, []*http.Cookie{{Name: "auth_token", Value: "b", MaxAge: 60}})
	if tok, _ := s.Token("auth_token"); tok != "b" {
		t.Errorf("token = %q; want b", tok)
	}

	s.SetCookies(u, []*http.Cookie{{Name: "auth_token", MaxAge: -1}})
	if _, ok := s.Token("auth_token"); ok {
		t.Error("token should be removed by MaxAge < 0")
	}

	s.SetCookies(u, []*http.Cookie{{Name: "auth_token", Value: "c", Expires: time.Now().Add(-time.Hour)}})
	if _, ok := s.Token("auth_token"); ok {
		t.Error("cookie with past Expires must not be stored")
	}
}
