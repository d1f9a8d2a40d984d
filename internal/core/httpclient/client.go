package httpclient

import (
	"net/http"
	"time"

	"courier-portal/internal/core/logger"

	"go.uber.org/zap"
)

// LoggingRoundTripper captures request details for debugging.
type LoggingRoundTripper struct {
	// Proxied is the underlying RoundTripper to execute the request.
	Proxied http.RoundTripper
}

// RoundTrip executes the request and logs details.
func (lrt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	log := logger.Named("httpclient")

	resp, err := lrt.Proxied.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		log.Error("HTTP Request Failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.Redacted()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	log.Debug("HTTP Request Completed",
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	return resp, nil
}

// HeaderRoundTripper sets static headers on every outgoing request.
type HeaderRoundTripper struct {
	Proxied http.RoundTripper
	Headers http.Header
}

// RoundTrip clones the request before mutating headers, as RoundTripper requires.
func (h *HeaderRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, vs := range h.Headers {
		r.Header.Del(k)
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	return h.Proxied.RoundTrip(r)
}

// Option customizes the client built by NewClient.
type Option func(http.RoundTripper) http.RoundTripper

// WithHeaders attaches static headers (API keys, content negotiation) to every request.
func WithHeaders(headers http.Header) Option {
	return func(next http.RoundTripper) http.RoundTripper {
		return &HeaderRoundTripper{Proxied: next, Headers: headers}
	}
}

// NewClient returns an http.Client with logging middleware.
func NewClient(timeout time.Duration, opts ...Option) *http.Client {
	var rt http.RoundTripper = &LoggingRoundTripper{Proxied: http.DefaultTransport}
	for _, opt := range opts {
		rt = opt(rt)
	}
	return &http.Client{
		Transport: rt,
		Timeout:   timeout,
	}
}
