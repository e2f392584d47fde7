// ABOUTME: JSON HTTP client with request and response interceptor chains
// ABOUTME: Resolves paths against a base URL and carries the cookie jar for every call

package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// RequestInterceptor runs before a request is sent. Returning an error
// short-circuits the call.
type RequestInterceptor func(req *http.Request) (*http.Request, error)

// ResponseInterceptor runs after a response is received. It may return a
// different response, typically one obtained by resubmitting req through c.
type ResponseInterceptor func(c *Client, req *http.Request, resp *http.Response) (*http.Response, error)

// Options configures a Client
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Jar       http.CookieJar
	Transport http.RoundTripper
	UserAgent string
	Logger    *slog.Logger
}

// Client sends requests to the REST backend
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	logger    *slog.Logger

	mu       sync.RWMutex
	requests []RequestInterceptor
	replies  []ResponseInterceptor
}

// New creates a Client for opts.BaseURL
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Jar:       opts.Jar,
			Transport: opts.Transport,
		},
		userAgent: opts.UserAgent,
		logger:    logger.With("component", "httpclient"),
	}, nil
}

// BaseURL returns a copy of the base URL
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Jar returns the cookie jar, nil if none was configured
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// UseRequest appends request interceptors
func (c *Client) UseRequest(fns ...RequestInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, fns...)
}

// UseResponse appends response interceptors
func (c *Client) UseResponse(fns ...ResponseInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, fns...)
}

// URL resolves path against the base URL, keeping the base path prefix.
func (c *Client) URL(path string) *url.URL {
	ref, err := url.Parse(path)
	if err != nil {
		ref = &url.URL{Path: path}
	}
	if ref.IsAbs() {
		return ref
	}

	u := c.BaseURL()
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawQuery = ref.RawQuery
	return u
}

// NewRequest builds a request for path. A non-nil body is encoded as JSON.
func (c *Client) NewRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path).String(), reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// Do runs the request interceptors, sends req and runs the response
// interceptors. The caller closes the returned body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.mu.RLock()
	requests := append([]RequestInterceptor(nil), c.requests...)
	replies := append([]ResponseInterceptor(nil), c.replies...)
	c.mu.RUnlock()

	for _, fn := range requests {
		next, err := fn(req)
		if err != nil {
			c.logger.Debug("request short-circuited", "method", req.Method, "path", req.URL.Path, "error", err)
			return nil, err
		}
		req = next
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		return nil, err
	}
	c.logger.Debug("request completed",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"request_id", req.Header.Get(RequestIDHeader),
		"dur", time.Since(start),
	)

	for _, fn := range replies {
		resp, err = fn(c, req, resp)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// DoJSON sends a JSON request and decodes a 2xx JSON response into out.
// Non-2xx responses are returned as *StatusError.
func (c *Client) DoJSON(ctx context.Context, method, path string, in, out any) error {
	req, err := c.NewRequest(ctx, method, path, in)
	if err != nil {
		return err
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, req.URL.Path, err)
	}
	return nil
}

// Replay returns a copy of req bound to ctx with a fresh body, suitable for
// resubmitting through Do.
func Replay(ctx context.Context, req *http.Request) (*http.Request, error) {
	clone := req.Clone(ctx)
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body for %s %s cannot be replayed", req.Method, req.URL.Path)
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewinding request body: %w", err)
	}
	clone.Body = body
	return clone, nil
}
