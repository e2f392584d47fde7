// ABOUTME: TokenStore holds the access token in memory and in the persisted slot
// ABOUTME: Both copies are written together under one lock so readers never see a torn state

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/2389/agentdesk/internal/store"
)

// TokenStore is the single authority for the access token
type TokenStore struct {
	mu     sync.RWMutex
	access string
	state  store.StateStore
	logger *slog.Logger
}

// NewTokenStore creates a TokenStore persisting to state. A nil state keeps
// the token in memory only.
func NewTokenStore(state store.StateStore) *TokenStore {
	return &TokenStore{
		state:  state,
		logger: slog.Default().With("component", "tokens"),
	}
}

// Load reads the persisted slot into memory. A missing slot leaves the store empty.
func (s *TokenStore) Load(ctx context.Context) error {
	if s.state == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.state.GetState(ctx, store.KeyAccessToken)
	if errors.Is(err, store.ErrNotFound) {
		s.access = ""
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading access token: %w", err)
	}
	s.access = tok
	return nil
}

// AccessToken returns the current token, or "" when there is none
func (s *TokenStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

// SetAccessToken persists tok and then replaces the in-memory copy. An empty
// tok clears both. If persisting fails the in-memory copy is left unchanged.
func (s *TokenStore) SetAccessToken(ctx context.Context, tok string) error {
	if tok == "" {
		return s.ClearAccessToken(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != nil {
		if err := s.state.PutState(ctx, store.KeyAccessToken, tok); err != nil {
			return fmt.Errorf("persisting access token: %w", err)
		}
	}
	s.access = tok
	return nil
}

// ClearAccessToken empties both copies. Memory is always cleared, even when
// the persisted slot cannot be deleted.
func (s *TokenStore) ClearAccessToken(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.access = ""
	if s.state == nil {
		return nil
	}
	if err := s.state.DeleteState(ctx, store.KeyAccessToken); err != nil {
		s.logger.Warn("failed to clear persisted access token", "error", err)
		return fmt.Errorf("clearing access token: %w", err)
	}
	return nil
}
