// ABOUTME: Cookie jar that mirrors received cookies into the store
// ABOUTME: Lets the httponly refresh cookie and its marker survive between console runs

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/2389/agentdesk/internal/store"
)

// PersistentJar wraps a net/http/cookiejar.Jar and records every cookie it
// accepts. Reads are served by the in-memory jar.
type PersistentJar struct {
	mu      sync.RWMutex
	inner   *cookiejar.Jar
	cookies store.CookieStore
	logger  *slog.Logger
	now     func() time.Time
}

var _ http.CookieJar = (*PersistentJar)(nil)

func newInnerJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// NewPersistentJar creates a jar and replays the unexpired rows of cs into it.
// A nil cs gives a memory-only jar.
func NewPersistentJar(ctx context.Context, cs store.CookieStore) (*PersistentJar, error) {
	inner, err := newInnerJar()
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	j := &PersistentJar{
		inner:   inner,
		cookies: cs,
		logger:  slog.Default().With("component", "cookiejar"),
		now:     time.Now,
	}

	if cs == nil {
		return j, nil
	}

	purged, err := cs.PurgeExpiredCookies(ctx, j.now())
	if err != nil {
		return nil, fmt.Errorf("purging expired cookies: %w", err)
	}
	if purged > 0 {
		j.logger.Debug("purged expired cookies", "count", purged)
	}

	rows, err := cs.ListCookies(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading cookies: %w", err)
	}
	for _, row := range rows {
		u, err := url.Parse(row.URL)
		if err != nil {
			j.logger.Warn("skipping stored cookie with bad origin", "name", row.Name, "error", err)
			continue
		}
		inner.SetCookies(u, []*http.Cookie{toHTTPCookie(row, u)})
	}
	j.logger.Debug("cookie jar restored", "count", len(rows))

	return j, nil
}

// Cookies implements http.CookieJar
func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.inner.Cookies(u)
}

// SetCookies implements http.CookieJar. Cookies deleted by the server
// (MaxAge < 0 or an expiry in the past) are removed from the store.
func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	j.inner.SetCookies(u, cookies)
	j.mu.RUnlock()

	if j.cookies == nil {
		return
	}

	ctx := context.Background()
	now := j.now()
	for _, c := range cookies {
		row := fromHTTPCookie(c, u, now)
		var err error
		if c.MaxAge < 0 || row.Expired(now) {
			err = j.cookies.DeleteCookie(ctx, row.Domain, row.Path, row.Name)
		} else {
			err = j.cookies.SaveCookie(ctx, row)
		}
		if err != nil {
			j.logger.Warn("failed to persist cookie", "name", c.Name, "error", err)
		}
	}
}

// Expire deletes the host-only cookie name at path "/" for u, the way a
// server does with MaxAge -1. Used to drop the readable marker cookie on a
// local logout; httponly cookies stay under the server's control.
func (j *PersistentJar) Expire(u *url.URL, name string) {
	j.SetCookies(u, []*http.Cookie{{Name: name, Path: "/", MaxAge: -1}})
}

// Clear drops every cookie from memory and from the store
func (j *PersistentJar) Clear(ctx context.Context) error {
	inner, err := newInnerJar()
	if err != nil {
		return fmt.Errorf("creating cookie jar: %w", err)
	}

	j.mu.Lock()
	j.inner = inner
	j.mu.Unlock()

	if j.cookies == nil {
		return nil
	}
	return j.cookies.ClearCookies(ctx)
}

func fromHTTPCookie(c *http.Cookie, u *url.URL, now time.Time) *store.Cookie {
	domain := strings.TrimPrefix(strings.ToLower(c.Domain), ".")
	if domain == "" {
		domain = u.Hostname()
	}

	path := c.Path
	if path == "" || path[0] != '/' {
		path = defaultPath(u.Path)
	}

	expires := c.Expires
	if c.MaxAge > 0 {
		expires = now.Add(time.Duration(c.MaxAge) * time.Second)
	}

	return &store.Cookie{
		URL:      (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}).String(),
		Name:     c.Name,
		Value:    c.Value,
		Domain:   domain,
		Path:     path,
		Expires:  expires,
		Secure:   c.Secure,
		HTTPOnly: c.HttpOnly,
	}
}

// toHTTPCookie rebuilds a cookie for replay. A row whose domain equals the
// origin host was host-only and is replayed without a Domain attribute.
func toHTTPCookie(row *store.Cookie, origin *url.URL) *http.Cookie {
	c := &http.Cookie{
		Name:     row.Name,
		Value:    row.Value,
		Path:     row.Path,
		Expires:  row.Expires,
		Secure:   row.Secure,
		HttpOnly: row.HTTPOnly,
	}
	if row.Domain != origin.Hostname() {
		c.Domain = row.Domain
	}
	return c
}

// defaultPath is the RFC 6265 default-path of a request path
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}
