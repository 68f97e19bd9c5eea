package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(req).
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Transport wraps an http.RoundTripper.
type Transport func(http.RoundTripper) http.RoundTripper

// Chain applies the wrappers to base so that the first one runs outermost.
// A nil base means http.DefaultTransport.
func Chain(base http.RoundTripper, wrappers ...Transport) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	rt := base
	for i := len(wrappers) - 1; i >= 0; i-- {
		rt = wrappers[i](rt)
	}
	return rt
}

// WithRequestID sets X-Request-ID on outgoing requests that lack one.
func WithRequestID() Transport {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(RequestIDHeader) != "" {
				return next.RoundTrip(req)
			}
			req = req.Clone(req.Context())
			req.Header.Set(RequestIDHeader, uuid.NewString())
			return next.RoundTrip(req)
		})
	}
}

// WithClientLogging logs each outgoing request at debug level and transport
// failures at warn level. Header values are never logged.
func WithClientLogging(log *zap.Logger) Transport {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("url", req.URL.Redacted()),
				zap.String("request_id", req.Header.Get(RequestIDHeader)),
			}

			resp, err := next.RoundTrip(req)
			fields = append(fields, zap.Duration("duration", time.Since(start)))
			if err != nil {
				log.Warn("request failed", append(fields, zap.Error(err))...)
				return nil, err
			}
			log.Debug("request done", append(fields, zap.Int("status", resp.StatusCode))...)
			return resp, nil
		})
	}
}
