// Package httputil provides the HTTP client shim shared by every extractor,
// together with URL normalization and HTML text helpers.
package httputil

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"anime4up/internal/logger"
)

// DefaultUserAgent is sent when a caller does not override User-Agent.
const DefaultUserAgent = "Mozilla/5.0"

// DefaultTimeout bounds every call made through a Client.
const DefaultTimeout = 10 * time.Second

// ErrNoResponse reports that a fetch produced no response at all.
var ErrNoResponse = errors.New("no response")

// Request is the transport-neutral request handed to a Fetcher.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is the transport-neutral response returned by a Fetcher.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// URL is the final URL after redirects.
	URL string
}

// Text returns the body as a string.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}

// OK reports a 2xx or 3xx status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 400
}

// Fetcher performs one HTTP exchange. Implementations may be injected by the
// host environment (for proxied or restricted networks).
type Fetcher interface {
	Fetch(ctx context.Context, req *Request) (*Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req *Request) (*Response, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Options describes a single call made with Client.Do.
type Options struct {
	Method  string
	Headers map[string]string
	Body    []byte
}

// Client applies uniform headers and a deadline to every call, prefers the
// injected transport and falls back to a direct fetch.
type Client struct {
	transport Fetcher
	direct    Fetcher
	timeout   time.Duration
	userAgent string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithTransport injects the preferred transport.
func WithTransport(f Fetcher) ClientOption {
	return func(c *Client) { c.transport = f }
}

// WithDirect replaces the fallback transport. A nil Fetcher disables it.
func WithDirect(f Fetcher) ClientOption {
	return func(c *Client) { c.direct = f }
}

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets the default User-Agent.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a Client whose fallback transport is resty on top of
// NewHTTPClient.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		direct:    NewRestyFetcher(NewHTTPClient()),
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewHTTPClient creates a hardened HTTP client with secure defaults.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        20,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 5,
		},
	}
}

// Timeout returns the per-call deadline.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// UserAgent returns the default User-Agent.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// Do performs a request and never fails: transport errors, panics inside a
// fetcher and deadline expiry all collapse to a nil Response. Each fetcher
// gets its own timeout.
func (c *Client) Do(ctx context.Context, rawURL string, opts Options) *Response {
	if err := ValidateURL(rawURL); err != nil {
		logger.Debug("skipping request", "url", rawURL, "err", err)
		return nil
	}

	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = http.MethodGet
	}

	headers := map[string]string{
		"User-Agent": c.userAgent,
		"Referer":    rawURL,
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	req := &Request{
		Method:  method,
		URL:     rawURL,
		Headers: headers,
		Body:    opts.Body,
	}

	for _, f := range []Fetcher{c.transport, c.direct} {
		if f == nil {
			continue
		}
		resp, err := c.attempt(ctx, f, req)
		if err == nil && resp != nil {
			if resp.URL == "" {
				resp.URL = rawURL
			}
			return resp
		}
		logger.Debug("fetch failed", "method", method, "url", rawURL, "err", err)
		if ctx.Err() != nil {
			break
		}
	}

	return nil
}

// Get performs a GET with extra headers.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) *Response {
	return c.Do(ctx, rawURL, Options{Headers: headers})
}

// Text performs a GET and returns the body, or ErrNoResponse.
func (c *Client) Text(ctx context.Context, rawURL string, headers map[string]string) (string, error) {
	resp := c.Get(ctx, rawURL, headers)
	if resp == nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, ErrNoResponse)
	}
	return resp.Text(), nil
}

// CheckServer tries rawURL with HEAD, then GET, and reports whether either
// answered with a 2xx or 3xx status.
func (c *Client) CheckServer(ctx context.Context, rawURL string) bool {
	if resp := c.Do(ctx, rawURL, Options{Method: http.MethodHead}); resp.OK() {
		return true
	}
	return c.Do(ctx, rawURL, Options{}).OK()
}

// attempt runs one fetcher under its own deadline so a stalled transport
// leaves the full budget to the next one.
func (c *Client) attempt(ctx context.Context, f Fetcher, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return safeFetch(ctx, f, req)
}

func safeFetch(ctx context.Context, f Fetcher, req *Request) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("fetcher panic: %v", r)
		}
	}()
	return f.Fetch(ctx, req)
}
