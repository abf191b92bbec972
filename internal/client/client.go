// ABOUTME: HTTP client for the ride-hailing platform API
// ABOUTME: Injects the bearer credential, normalizes responses and reports 401s

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// maxResponseBytes bounds how much of a response body is read
const maxResponseBytes = 10 << 20

// Authenticator supplies the credential for outbound requests and is told
// when the backend rejects it. The session manager implements it.
type Authenticator interface {
	// Credential returns the bearer credential, or "" for anonymous requests
	Credential() string
	// HandleUnauthorized is called once for every exchange that ends in 401
	HandleUnauthorized(err error)
}

// Client is the API client for the platform backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger

	mu   sync.RWMutex
	auth Authenticator
}

// Option configures a Client
type Option func(*Client)

// WithAuthenticator binds the credential source and unauthorized handler
func WithAuthenticator(a Authenticator) Option {
	return func(c *Client) {
		c.auth = a
	}
}

// WithHTTPClient uses a copy of hc as the underlying client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		clone := *hc
		c.httpClient = &clone
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRateLimit limits outbound requests to rps with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the client logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a new API client with the given base URL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.httpClient.Transport = &authTransport{base: base, client: c}
	return c
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Bind replaces the authenticator at runtime. Passing nil makes requests anonymous.
func (c *Client) Bind(a Authenticator) {
	c.mu.Lock()
	c.auth = a
	c.mu.Unlock()
}

func (c *Client) authenticator() Authenticator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// do performs one API exchange. in is JSON-encoded as the request body when
// non-nil; the normalized payload is decoded into out when non-nil. Every
// failure is returned as *Error.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &Error{Message: fmt.Sprintf("failed to marshal request: %v", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("API request failed", "request_id", reqID, "method", method, "path", path, "error", err)
		return c.finish(failureError(0, nil, nil, c.transportMessage(ctx, err)))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.finish(failureError(resp.StatusCode, nil, nil, fmt.Sprintf("failed to read response: %v", err)))
	}

	c.logger.Debug("API request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", reqID,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	payload, apiErr := normalize(resp.StatusCode, raw)
	if apiErr != nil {
		return c.finish(apiErr)
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &Error{
			Message: fmt.Sprintf("invalid response from backend: %v", err),
			Status:  resp.StatusCode,
		}
	}
	return nil
}

// finish runs the unauthorized hook for 401s and returns apiErr
func (c *Client) finish(apiErr *Error) error {
	if apiErr.Status == http.StatusUnauthorized {
		c.notifyUnauthorized(apiErr)
	}
	return apiErr
}

// notifyUnauthorized calls the bound handler; a panicking handler must not
// take the calling code path down with it.
func (c *Client) notifyUnauthorized(apiErr *Error) {
	a := c.authenticator()
	if a == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("Unauthorized handler panicked", "panic", r)
		}
	}()
	a.HandleUnauthorized(apiErr)
}

// transportMessage converts request errors to user-friendly messages
func (c *Client) transportMessage(ctx context.Context, err error) string {
	if errors.Is(ctx.Err(), context.Canceled) {
		return "request canceled"
	}
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return "request timed out"
	}
	return fmt.Sprintf("cannot connect to backend at %s: %v", c.baseURL, err)
}
