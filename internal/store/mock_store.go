// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu      sync.RWMutex
	state   map[string]string  // keyed by state key
	cookies map[string]*Cookie // keyed by "domain|path|name"
	closed  bool

	// FailWrites makes every write return an error, for exercising persistence failures.
	FailWrites bool
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		state:   make(map[string]string),
		cookies: make(map[string]*Cookie),
	}
}

func cookieKey(domain, path, name string) string {
	return domain + "|" + path + "|" + name
}

// GetState returns the value for key.
func (m *MockStore) GetState(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.state[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// PutState writes a whitelisted key.
func (m *MockStore) PutState(ctx context.Context, key, value string) error {
	if !AllowedStateKey(key) {
		return fmt.Errorf("%w: %q", ErrKeyNotAllowed, key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return fmt.Errorf("writing state %q: mock write failure", key)
	}
	m.state[key] = value
	return nil
}

// DeleteState removes keys.
func (m *MockStore) DeleteState(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return fmt.Errorf("deleting state: mock write failure")
	}
	for _, k := range keys {
		delete(m.state, k)
	}
	return nil
}

// StateKeys returns the stored state keys in sorted order.
func (m *MockStore) StateKeys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.state))
	for k := range m.state {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SaveCookie upserts a cookie.
func (m *MockStore) SaveCookie(ctx context.Context, c *Cookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return fmt.Errorf("saving cookie %q: mock write failure", c.Name)
	}

	stored := *c
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now()
	}
	m.cookies[cookieKey(c.Domain, c.Path, c.Name)] = &stored
	return nil
}

// DeleteCookie removes a cookie.
func (m *MockStore) DeleteCookie(ctx context.Context, domain, path, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.cookies, cookieKey(domain, path, name))
	return nil
}

// ListCookies returns copies of all cookies, oldest first.
func (m *MockStore) ListCookies(ctx context.Context) ([]*Cookie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Cookie, 0, len(m.cookies))
	for _, c := range m.cookies {
		cp := *c
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.Before(result[j].UpdatedAt)
	})
	return result, nil
}

// PurgeExpiredCookies deletes cookies expired at now.
func (m *MockStore) PurgeExpiredCookies(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, c := range m.cookies {
		if c.Expired(now) {
			delete(m.cookies, k)
			n++
		}
	}
	return n, nil
}

// ClearCookies removes all cookies.
func (m *MockStore) ClearCookies(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cookies = make(map[string]*Cookie)
	return nil
}

// Close marks the store closed.
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// Compile-time interface checks
var (
	_ Store = (*MockStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
