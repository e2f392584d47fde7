// ABOUTME: One-shot session initializer run at console start
// ABOUTME: Refreshes a stored token if there is one; never navigates

package session

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/2389/agentdesk/internal/auth"
)

// Lifecycle is the initializer's progress
type Lifecycle int32

const (
	NotStarted Lifecycle = iota
	InProgress
	Done
)

func (l Lifecycle) String() string {
	switch l {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Outcome is where the initializer left the session
type Outcome int

const (
	OutcomeIdle Outcome = iota
	OutcomeAuthenticated
)

func (o Outcome) String() string {
	if o == OutcomeAuthenticated {
		return "authenticated"
	}
	return "idle"
}

// AccessTokenRefresher returns a new access token or "" on failure
type AccessTokenRefresher interface {
	RefreshAccessToken(ctx context.Context) string
}

// Initializer runs the start-up reconciliation exactly once
type Initializer struct {
	lifecycle atomic.Int32
	done      chan struct{}
	outcome   Outcome

	container *Container
	tokens    *auth.TokenStore
	refresher AccessTokenRefresher
	logger    *slog.Logger
}

// NewInitializer creates an Initializer
func NewInitializer(container *Container, tokens *auth.TokenStore, refresher AccessTokenRefresher) *Initializer {
	return &Initializer{
		done:      make(chan struct{}),
		container: container,
		tokens:    tokens,
		refresher: refresher,
		logger:    slog.Default().With("component", "initializer"),
	}
}

// Lifecycle reports the initializer's progress
func (i *Initializer) Lifecycle() Lifecycle {
	return Lifecycle(i.lifecycle.Load())
}

// Run performs the reconciliation on the first call. Later and concurrent
// callers wait for that run and get its outcome; ctx only bounds the wait.
func (i *Initializer) Run(ctx context.Context) (Outcome, error) {
	if !i.lifecycle.CompareAndSwap(int32(NotStarted), int32(InProgress)) {
		select {
		case <-i.done:
			return i.outcome, nil
		case <-ctx.Done():
			return OutcomeIdle, ctx.Err()
		}
	}

	i.outcome = i.reconcile(ctx)
	i.lifecycle.Store(int32(Done))
	close(i.done)

	i.logger.Debug("session initialized", "outcome", i.outcome)
	return i.outcome, nil
}

func (i *Initializer) reconcile(ctx context.Context) Outcome {
	if i.tokens.AccessToken() == "" {
		return OutcomeIdle
	}

	tok := i.refresher.RefreshAccessToken(ctx)
	if tok == "" {
		// The stored token cannot be renewed; drop it so it is not sent again
		i.container.ForceLogout()
		return OutcomeIdle
	}

	if err := i.container.SetTokens(ctx, tok); err != nil {
		i.logger.Warn("failed to persist refreshed token", "error", err)
	}
	return OutcomeAuthenticated
}
