// Package storage keeps the client's cookies on disk. It plays the role of the
// browser cookie store: it is the only writer of the session cookie, every
// other component only reads it.
package storage

import (
	"fmt"
	"net/http"
	"net/url"

	cookiejar "github.com/juju/persistent-cookiejar"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// CookieStore is an http.CookieJar persisted to a JSON file. Matching of
// domains, paths, expiry and the Secure attribute follows RFC 6265.
type CookieStore struct {
	jar  *cookiejar.Jar
	path string
	log  *zap.Logger
}

// NewCookieStore opens the store backed by the file at path. A missing file
// yields an empty store; it is created on the first Save.
func NewCookieStore(path string, log *zap.Logger) (*CookieStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	jar, err := cookiejar.New(&cookiejar.Options{
		Filename:         path,
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return nil, fmt.Errorf("load cookie store: %w", err)
	}
	return &CookieStore{jar: jar, path: path, log: log}, nil
}

// Save writes the persistent cookies to the store file.
func (s *CookieStore) Save() error {
	if err := s.jar.Save(); err != nil {
		return fmt.Errorf("save cookie store: %w", err)
	}
	return nil
}

// SetCookies implements http.CookieJar. The store is saved after every
// change; a failed save is logged and the cookies stay in memory.
func (s *CookieStore) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.jar.SetCookies(u, cookies)
	if err := s.Save(); err != nil {
		s.log.Error("failed to save cookie store", zap.String("path", s.path), zap.Error(err))
	}
}

// Cookies implements http.CookieJar.
func (s *CookieStore) Cookies(u *url.URL) []*http.Cookie {
	return s.jar.Cookies(u)
}

// Token returns the value of the named cookie regardless of host or path.
// Expired cookies are never returned.
func (s *CookieStore) Token(name string) (string, bool) {
	for _, c := range s.jar.AllCookies() {
		if c.Name == name && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}
