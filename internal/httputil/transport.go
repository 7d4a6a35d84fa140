// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import "net/http"

// RetryTransport is an http.RoundTripper that applies DoWithRetry to every
// request, so SDK clients that accept an *http.Client get the same throttling
// behavior as direct callers.
type RetryTransport struct {
	Base       http.RoundTripper
	MaxRetries int
}

// NewClient returns an http.Client whose transport retries throttled
// responses.
func NewClient(base http.RoundTripper, maxRetries int) *http.Client {
	return &http.Client{Transport: &RetryTransport{Base: base, MaxRetries: maxRetries}}
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return DoWithRetry(req.Context(), &http.Client{Transport: base}, req, t.MaxRetries)
}
