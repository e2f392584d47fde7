// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Persists the client state slice and cookie rows with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored timestamps compare correctly as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// The state database holds credentials, keep it private to the user
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := os.Chmod(path, 0600); err != nil && !os.IsNotExist(err) {
		logger.Warn("could not restrict state database permissions", "path", path, "error", err)
	}

	logger.Debug("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS client_state (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL,

			CHECK (key IN ('user', 'tokens.access'))
		);

		CREATE TABLE IF NOT EXISTS cookies (
			domain     TEXT NOT NULL,
			path       TEXT NOT NULL,
			name       TEXT NOT NULL,
			url        TEXT NOT NULL,
			value      TEXT NOT NULL,
			expires_at TEXT,
			secure     INTEGER NOT NULL DEFAULT 0,
			http_only  INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL,

			PRIMARY KEY (domain, path, name)
		);

		CREATE INDEX IF NOT EXISTS idx_cookies_expires ON cookies(expires_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetState returns the value stored for key
func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM client_state WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying state %q: %w", key, err)
	}
	return value, nil
}

// PutState upserts a whitelisted key
func (s *SQLiteStore) PutState(ctx context.Context, key, value string) error {
	if !AllowedStateKey(key) {
		return fmt.Errorf("%w: %q", ErrKeyNotAllowed, key)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("writing state %q: %w", key, err)
	}
	return nil
}

// DeleteState removes keys in one statement
func (s *SQLiteStore) DeleteState(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		placeholders[i] = "?"
		args[i] = k
	}

	query := `DELETE FROM client_state WHERE key IN (` + strings.Join(placeholders, ", ") + `)`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting state: %w", err)
	}
	return nil
}

// SaveCookie upserts a cookie row keyed by domain, path and name
func (s *SQLiteStore) SaveCookie(ctx context.Context, c *Cookie) error {
	var expires sql.NullString
	if !c.Expires.IsZero() {
		expires = sql.NullString{String: c.Expires.UTC().Format(timeLayout), Valid: true}
	}

	updated := c.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cookies (domain, path, name, url, value, expires_at, secure, http_only, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain, path, name) DO UPDATE SET
			url = excluded.url,
			value = excluded.value,
			expires_at = excluded.expires_at,
			secure = excluded.secure,
			http_only = excluded.http_only,
			updated_at = excluded.updated_at
	`, c.Domain, c.Path, c.Name, c.URL, c.Value, expires, boolToInt(c.Secure), boolToInt(c.HTTPOnly),
		updated.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("saving cookie %q: %w", c.Name, err)
	}
	return nil
}

// DeleteCookie removes one cookie row
func (s *SQLiteStore) DeleteCookie(ctx context.Context, domain, path, name string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM cookies WHERE domain = ? AND path = ? AND name = ?`,
		domain, path, name,
	)
	if err != nil {
		return fmt.Errorf("deleting cookie %q: %w", name, err)
	}
	return nil
}

// ListCookies returns every stored cookie, oldest first
func (s *SQLiteStore) ListCookies(ctx context.Context) ([]*Cookie, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, path, name, url, value, expires_at, secure, http_only, updated_at
		FROM cookies
		ORDER BY updated_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying cookies: %w", err)
	}
	defer rows.Close()

	var cookies []*Cookie
	for rows.Next() {
		var (
			c        Cookie
			expires  sql.NullString
			secure   int
			httpOnly int
			updated  string
		)
		if err := rows.Scan(&c.Domain, &c.Path, &c.Name, &c.URL, &c.Value, &expires, &secure, &httpOnly, &updated); err != nil {
			return nil, fmt.Errorf("scanning cookie: %w", err)
		}
		if expires.Valid {
			c.Expires, _ = time.Parse(timeLayout, expires.String)
		}
		c.Secure = secure != 0
		c.HTTPOnly = httpOnly != 0
		c.UpdatedAt, _ = time.Parse(timeLayout, updated)
		cookies = append(cookies, &c)
	}

	return cookies, rows.Err()
}

// PurgeExpiredCookies deletes cookies whose expiry is not after now
func (s *SQLiteStore) PurgeExpiredCookies(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cookies WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		now.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("purging cookies: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purging cookies: %w", err)
	}
	return int(n), nil
}

// ClearCookies removes every cookie row
func (s *SQLiteStore) ClearCookies(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cookies`); err != nil {
		return fmt.Errorf("clearing cookies: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
