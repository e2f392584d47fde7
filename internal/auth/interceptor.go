// ABOUTME: httpclient interceptors attaching the bearer token and handling expiry
// ABOUTME: Short-circuits without a refresh marker, applies rotated tokens, refreshes and retries once on 401

package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/2389/agentdesk/internal/httpclient"
)

// DefaultAllowList are the endpoints that never carry or require a session
var DefaultAllowList = []string{"/auth/login/", "/auth/refresh/", "/auth/signup/"}

// DefaultRotationHeader carries a rotated access token on any response
const DefaultRotationHeader = "x-new-access-token"

// Session receives the token changes the interceptor observes
type Session interface {
	// SetTokens adopts a new access token, persisting it through the TokenStore.
	SetTokens(ctx context.Context, access string) error
	// ForceLogout resets the session locally without contacting the server.
	ForceLogout()
}

// InterceptorOptions configures an Interceptor
type InterceptorOptions struct {
	Tokens         *TokenStore
	Probe          *RefreshProbe
	Refresher      *Refresher
	Session        Session
	AllowList      []string // defaults to DefaultAllowList
	RotationHeader string   // defaults to DefaultRotationHeader
}

// Interceptor implements the session's request and response phases
type Interceptor struct {
	tokens         *TokenStore
	probe          *RefreshProbe
	refresher      *Refresher
	session        Session
	allowList      []string
	rotationHeader string
	logger         *slog.Logger
}

// NewInterceptor creates an Interceptor
func NewInterceptor(opts InterceptorOptions) *Interceptor {
	allow := opts.AllowList
	if allow == nil {
		allow = DefaultAllowList
	}
	header := opts.RotationHeader
	if header == "" {
		header = DefaultRotationHeader
	}
	return &Interceptor{
		tokens:         opts.Tokens,
		probe:          opts.Probe,
		refresher:      opts.Refresher,
		session:        opts.Session,
		allowList:      allow,
		rotationHeader: header,
		logger:         slog.Default().With("component", "interceptor"),
	}
}

// Install registers both phases on c
func (i *Interceptor) Install(c *httpclient.Client) {
	c.UseRequest(i.Request)
	c.UseResponse(i.Response)
}

func (i *Interceptor) allowListed(req *http.Request) bool {
	for _, suffix := range i.allowList {
		if strings.HasSuffix(req.URL.Path, suffix) {
			return true
		}
	}
	return false
}

// Request is the request phase. Allow-listed calls pass untouched; any other
// call without a refresh marker fails with ErrSessionExpired before reaching
// the network.
func (i *Interceptor) Request(req *http.Request) (*http.Request, error) {
	if i.allowListed(req) {
		return req, nil
	}

	if !i.probe.IsRefreshTokenPresent() {
		return nil, ErrSessionExpired
	}

	// A retried request already carries the freshly minted token
	if IsRetried(req.Context()) && req.Header.Get("Authorization") != "" {
		return req, nil
	}

	if tok := i.tokens.AccessToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

// Response is the response phase
func (i *Interceptor) Response(c *httpclient.Client, req *http.Request, resp *http.Response) (*http.Response, error) {
	if i.allowListed(req) {
		return resp, nil
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if IsRetried(req.Context()) {
			return resp, nil
		}
		return i.refreshAndRetry(c, req, resp)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if rotated := resp.Header.Get(i.rotationHeader); rotated != "" {
			if err := i.session.SetTokens(req.Context(), rotated); err != nil {
				i.logger.Warn("failed to apply rotated token", "error", err)
			} else {
				i.logger.Debug("access token rotated", "path", req.URL.Path)
			}
		}
	}
	return resp, nil
}

func (i *Interceptor) refreshAndRetry(c *httpclient.Client, req *http.Request, resp *http.Response) (*http.Response, error) {
	discard(resp)

	if !i.probe.IsRefreshTokenPresent() {
		return nil, ErrSessionExpired
	}

	ctx := WithRetried(req.Context())
	tok := i.refresher.RefreshAccessToken(ctx)
	if tok == "" && ctx.Err() != nil {
		// The caller gave up; that says nothing about the refresh cookie
		return nil, ctx.Err()
	}
	if tok == "" {
		i.logger.Info("refresh failed after 401, logging out", "path", req.URL.Path)
		i.session.ForceLogout()
		return nil, ErrSessionExpired
	}

	if err := i.session.SetTokens(ctx, tok); err != nil {
		i.logger.Warn("failed to persist refreshed token", "error", err)
	}

	retry, err := httpclient.Replay(ctx, req)
	if err != nil {
		return nil, err
	}
	retry.Header.Set("Authorization", "Bearer "+tok)

	i.logger.Debug("retrying request after refresh", "method", req.Method, "path", req.URL.Path)
	return c.Do(retry)
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
