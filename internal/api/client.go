// Package api wraps the Munimji dashboard HTTP API. The client is an
// intentionally thin, stateless adapter: it attaches credentials,
// normalizes every outcome into one error shape, and leaves
// interpretation (401 means the session is stale, and so on) to the
// caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"munimji/internal/cache"
	applog "munimji/internal/log"
	"munimji/internal/session"
)

const authNamespace = "/api/auth/"

// Error is the non-success outcome of a request. Status carries the
// HTTP status code for server rejections; Status 0 means the request
// never produced a response (unreachable host, timeout, cancelation).
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Transport() {
		return fmt.Sprintf("api: transport failure: %s", e.Message)
	}
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// Transport reports whether the failure happened below HTTP.
func (e *Error) Transport() bool {
	return e.Status == 0
}

// Unauthorized reports a 401, the authoritative stale-session signal.
func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// Client issues requests against the configured backend base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     session.TokenSource
	logger     *applog.Logger

	maxRetries int
	retryBase  time.Duration

	// Short-TTL cache of raw GET responses; cleared on every write.
	responses *cache.LRUCache[[]byte]
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout. A hung request must not
// hang a loading view forever.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetries sets the bounded retry budget for idempotent GETs.
func WithRetries(n int, base time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = n
		c.retryBase = base
	}
}

// WithResponseCacheTTL overrides the GET response cache TTL.
func WithResponseCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.responses = cache.NewLRUCache[[]byte](64, ttl) }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a gateway client. tokens supplies the bearer token
// for endpoints outside the auth namespace; it is consulted per call,
// so a login in the same process is picked up immediately.
func NewClient(baseURL string, tokens session.TokenSource, logger *applog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		tokens:     tokens,
		logger:     logger.WithComponent(applog.ComponentGateway),
		maxRetries: 2,
		retryBase:  500 * time.Millisecond,
		responses:  cache.NewLRUCache[[]byte](64, 5*time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResponseCache exposes the GET cache for lifecycle management in
// long-lived processes.
func (c *Client) ResponseCache() *cache.LRUCache[[]byte] {
	return c.responses
}

// get issues a GET and decodes the 2xx JSON body into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	if raw, ok := c.responses.Get(path); ok {
		if err := json.Unmarshal(raw, out); err == nil {
			return nil
		}
		c.responses.Delete(path)
	}

	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Status: 0, Message: fmt.Sprintf("decode response: %v", err)}
	}
	c.responses.Set(path, raw)
	return nil
}

// send issues a mutating request and decodes the 2xx JSON body into
// out when out is non-nil. Any write invalidates the read cache.
func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	c.responses.Clear()
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Status: 0, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

// do performs the request, retrying idempotent GETs on transport
// failures and 5xx with exponential backoff. Non-GET requests get a
// single attempt; the backend does not deduplicate writes.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, *Error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, &Error{Status: 0, Message: fmt.Sprintf("encode request: %v", err)}
		}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.maxRetries
	}

	var last *Error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.retryBase << (attempt - 1)
			c.logger.Debug("retrying request",
				applog.FieldMethod, method,
				applog.FieldPath, path,
				"attempt", attempt,
				"delay", delay.String())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, &Error{Status: 0, Message: ctx.Err().Error()}
			}
		}

		raw, apiErr := c.doOnce(ctx, method, path, payload)
		if apiErr == nil {
			return raw, nil
		}
		last = apiErr
		if !apiErr.Transport() && apiErr.Status < 500 {
			return nil, apiErr
		}
		if ctx.Err() != nil {
			return nil, last
		}
	}
	return nil, last
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload []byte) ([]byte, *Error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &Error{Status: 0, Message: fmt.Sprintf("build request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	// The auth namespace is the only surface reachable without a
	// session; everything else gets the bearer token when present.
	if !strings.HasPrefix(path, authNamespace) {
		if token, err := c.tokens.Token(); err == nil {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			applog.FieldMethod, method,
			applog.FieldPath, path,
			applog.FieldError, err.Error())
		return nil, &Error{Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, &Error{Status: 0, Message: fmt.Sprintf("read response: %v", err)}
	}

	c.logger.Debug("request completed",
		applog.FieldMethod, method,
		applog.FieldPath, path,
		applog.FieldStatusCode, resp.StatusCode,
		applog.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	return raw, nil
}

// errorMessage extracts the server's error text from a non-2xx payload,
// falling back to a generic failure string.
func errorMessage(raw []byte) string {
	var payload struct {
		Detail  string `json:"detail"`
		Err     string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		switch {
		case payload.Detail != "":
			return payload.Detail
		case payload.Err != "":
			return payload.Err
		case payload.Message != "":
			return payload.Message
		}
	}
	return "request failed"
}
