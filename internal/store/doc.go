// Package store provides client-side persistence for agentdesk using SQLite.
//
// # Architecture
//
// Two narrow interfaces cover everything the console keeps between runs:
//
//   - StateStore: the whitelisted client state slice ("user" and "tokens.access")
//   - CookieStore: cookie rows backing the persistent cookie jar
//
// SQLiteStore implements both in a single struct. MockStore is an in-memory
// implementation for tests.
//
// # Whitelist
//
// The state slice only accepts the keys KeyUser and KeyAccessToken. Writes to
// any other key fail with ErrKeyNotAllowed, and the SQLite schema carries the
// same CHECK constraint. The refresh credential is never part of this slice:
// it only exists as an httponly cookie row owned by the cookie jar.
//
// # Usage
//
//	s, err := store.NewSQLiteStore("~/.local/share/agentdesk/state.db")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	if err := s.PutState(ctx, store.KeyAccessToken, token); err != nil {
//	    return err
//	}
package store
