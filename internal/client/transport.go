// ABOUTME: Outbound request hook applied to every API call
// ABOUTME: Adds the bearer credential, a request ID and optional rate limiting

package client

import (
	"net/http"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// authTransport decorates requests before handing them to base
type authTransport struct {
	base   http.RoundTripper
	client *Client
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.client.limiter != nil {
		if err := t.client.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	// RoundTrippers must not modify the caller's request
	out := req.Clone(req.Context())
	if a := t.client.authenticator(); a != nil {
		if cred := a.Credential(); cred != "" {
			out.Header.Set("Authorization", "Bearer "+cred)
		}
	}
	if out.Header.Get(requestIDHeader) == "" {
		out.Header.Set(requestIDHeader, uuid.NewString())
	}
	return t.base.RoundTrip(out)
}
