// ABOUTME: Store interfaces and data types for agentdesk client-side persistence
// ABOUTME: Defines the whitelisted session slice and the cookie rows backing the cookie jar

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entry does not exist
var ErrNotFound = errors.New("not found")

// ErrKeyNotAllowed is returned when writing a state key outside the persisted whitelist
var ErrKeyNotAllowed = errors.New("state key not allowed")

// Keys of the persisted client state slice. Nothing else is ever written,
// so no refresh credential can end up in it.
const (
	KeyUser        = "user"
	KeyAccessToken = "tokens.access"
)

var allowedStateKeys = map[string]bool{
	KeyUser:        true,
	KeyAccessToken: true,
}

// AllowedStateKey reports whether key belongs to the persisted whitelist.
func AllowedStateKey(key string) bool {
	return allowedStateKeys[key]
}

// Cookie is a persisted cookie row. Domain is the cookie's Domain attribute,
// or the request host for host-only cookies.
type Cookie struct {
	URL       string // URL the cookie was received from, used to replay it into a jar
	Name      string
	Value     string
	Domain    string
	Path      string
	Expires   time.Time // zero for session cookies
	Secure    bool
	HTTPOnly  bool
	UpdatedAt time.Time
}

// Expired reports whether the cookie has an expiry in the past.
func (c *Cookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

// StateStore persists the whitelisted client state slice
type StateStore interface {
	// GetState returns the value for key, or ErrNotFound.
	GetState(ctx context.Context, key string) (string, error)
	// PutState writes key. Keys outside the whitelist fail with ErrKeyNotAllowed.
	PutState(ctx context.Context, key, value string) error
	// DeleteState removes the given keys. Missing keys are not an error.
	DeleteState(ctx context.Context, keys ...string) error
}

// CookieStore persists cookie jar contents across runs
type CookieStore interface {
	SaveCookie(ctx context.Context, c *Cookie) error
	DeleteCookie(ctx context.Context, domain, path, name string) error
	ListCookies(ctx context.Context) ([]*Cookie, error)
	// PurgeExpiredCookies deletes cookies expired at now and returns how many were removed.
	PurgeExpiredCookies(ctx context.Context, now time.Time) (int, error)
	ClearCookies(ctx context.Context) error
}

// Store combines the state slice and the cookie rows
type Store interface {
	StateStore
	CookieStore
	Close() error
}
