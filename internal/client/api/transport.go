package api

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/atinyakov/GophChat/internal/logger"
	"github.com/atinyakov/GophChat/internal/middleware"
	"go.uber.org/zap"
)

// LoadTLSConfig returns a TLS config whose root pool is the PEM bundle at
// caFile. An empty caFile returns nil, meaning the system roots are used.
func LoadTLSConfig(caFile string) (*tls.Config, error) {
	if caFile == "" {
		return nil, nil
	}
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA cert")
	}
	return &tls.Config{RootCAs: caPool, MinVersion: tls.VersionTLS12}, nil
}

// NewHTTPClient builds the client used for calls to the authentication
// service. jar may be nil for calls that must not carry cookies. A zero
// timeout disables the client timeout.
func NewHTTPClient(jar http.CookieJar, tlsConfig *tls.Config, timeout time.Duration, log *zap.Logger) *http.Client {
	log = logger.OrNop(log)
	base := http.DefaultTransport.(*http.Transport).Clone()
	if tlsConfig != nil {
		base.TLSClientConfig = tlsConfig
	}
	return &http.Client{
		Jar:       jar,
		Timeout:   timeout,
		Transport: middleware.Chain(base, middleware.WithRequestID(), middleware.WithClientLogging(log)),
	}
}
