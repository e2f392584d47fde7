// ABOUTME: Container holds the session state and implements its transitions
// ABOUTME: Login, token adoption, logout, user fetch and hydration, with snapshot subscribers

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/2389/agentdesk/internal/api"
	"github.com/2389/agentdesk/internal/auth"
	"github.com/2389/agentdesk/internal/store"
)

// AuthAPI is the subset of the backend the container calls
type AuthAPI interface {
	Login(ctx context.Context, creds api.Credentials) (*api.LoginResult, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*api.User, error)
}

// Options configures a Container
type Options struct {
	Tokens *auth.TokenStore
	State  store.StateStore // persisted user slot; nil keeps the user in memory only
	API    AuthAPI
	// OnReset runs after every logout, forced or not.
	OnReset func()
}

// Container is the single source of truth for the session
type Container struct {
	mu      sync.Mutex
	state   State
	subs    map[int]chan State
	nextSub int

	tokens  *auth.TokenStore
	persist store.StateStore
	api     AuthAPI
	onReset func()
	logger  *slog.Logger
}

var _ auth.Session = (*Container)(nil)

// NewContainer creates a Container in the initial state
func NewContainer(opts Options) *Container {
	return &Container{
		state:   InitialState(),
		subs:    make(map[int]chan State),
		tokens:  opts.Tokens,
		persist: opts.State,
		api:     opts.API,
		onReset: opts.OnReset,
		logger:  slog.Default().With("component", "session"),
	}
}

// State returns the current snapshot
func (c *Container) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe returns a channel receiving a snapshot after every transition.
// Slow subscribers only see the latest snapshot. cancel closes the channel.
func (c *Container) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan State, 1)
	c.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (c *Container) dispatch(a action) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := reduce(c.state, a)
	if next == c.state {
		return next
	}
	c.state = next

	for _, ch := range c.subs {
		select {
		case ch <- next:
		default:
			// Replace the unread snapshot with the newer one
			select {
			case <-ch:
			default:
			}
			ch <- next
		}
	}
	return next
}

// Login validates creds locally, then authenticates against the backend
func (c *Container) Login(ctx context.Context, creds api.Credentials) (*api.User, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := validateCredentials(creds); err != nil {
		return nil, err
	}

	c.dispatch(action{kind: actionLoginStarted})

	res, err := c.api.Login(ctx, creds)
	if err == nil {
		err = c.tokens.SetAccessToken(ctx, res.Access)
	}
	if err != nil {
		if clearErr := c.tokens.ClearAccessToken(ctx); clearErr != nil {
			c.logger.Warn("failed to clear token after login failure", "error", clearErr)
		}
		c.dispatch(action{kind: actionLoginFailed, err: err.Error()})
		return nil, fmt.Errorf("login: %w", err)
	}

	c.persistUser(ctx, res.User)
	c.dispatch(action{kind: actionLoginSucceeded, access: res.Access, user: res.User})
	c.logger.Info("logged in", "user", userID(res.User))
	return res.User, nil
}

// SetTokens adopts access through the TokenStore. An empty access clears the
// token. The state always mirrors what the TokenStore holds afterwards.
func (c *Container) SetTokens(ctx context.Context, access string) error {
	err := c.tokens.SetAccessToken(ctx, access)
	c.dispatch(action{kind: actionTokensSet, access: c.tokens.AccessToken()})
	return err
}

// Logout asks the backend to drop the refresh cookie, ignoring any failure,
// then resets the local session.
func (c *Container) Logout(ctx context.Context) error {
	if c.api != nil {
		if err := c.api.Logout(ctx); err != nil {
			c.logger.Debug("server logout failed, clearing local session anyway", "error", err)
		}
	}
	return c.reset(ctx)
}

// ForceLogout resets the local session without contacting the backend
func (c *Container) ForceLogout() {
	if err := c.reset(context.Background()); err != nil {
		c.logger.Warn("forced logout could not clear persisted state", "error", err)
	}
}

func (c *Container) reset(ctx context.Context) error {
	var errs []error
	if err := c.tokens.ClearAccessToken(ctx); err != nil {
		errs = append(errs, err)
	}
	if c.persist != nil {
		if err := c.persist.DeleteState(ctx, store.KeyUser, store.KeyAccessToken); err != nil {
			errs = append(errs, fmt.Errorf("clearing persisted session: %w", err))
		}
	}

	c.dispatch(action{kind: actionReset})
	if c.onReset != nil {
		c.onReset()
	}
	return errors.Join(errs...)
}

// FetchUserData loads the current user. On failure the error is recorded in
// the state and the token is left alone.
func (c *Container) FetchUserData(ctx context.Context) (*api.User, error) {
	if c.State().AccessToken == "" && c.tokens.AccessToken() == "" {
		return nil, ErrNotAuthenticated
	}

	c.dispatch(action{kind: actionFetchStarted})

	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		c.dispatch(action{kind: actionUserFetchFailed, err: err.Error()})
		return nil, fmt.Errorf("fetching user: %w", err)
	}

	c.persistUser(ctx, user)
	c.dispatch(action{kind: actionUserFetched, user: user})
	return user, nil
}

// Hydrate restores the persisted token and user into the state
func (c *Container) Hydrate(ctx context.Context) error {
	if err := c.tokens.Load(ctx); err != nil {
		return err
	}

	var user *api.User
	if c.persist != nil {
		raw, err := c.persist.GetState(ctx, store.KeyUser)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return fmt.Errorf("loading user: %w", err)
		default:
			user = new(api.User)
			if err := json.Unmarshal([]byte(raw), user); err != nil {
				c.logger.Warn("discarding unreadable persisted user", "error", err)
				user = nil
			}
		}
	}

	c.dispatch(action{kind: actionHydrated, access: c.tokens.AccessToken(), user: user})
	return nil
}

func (c *Container) persistUser(ctx context.Context, user *api.User) {
	if c.persist == nil || user == nil {
		return
	}
	data, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := c.persist.PutState(ctx, store.KeyUser, string(data)); err != nil {
		c.logger.Warn("failed to persist user", "error", err)
	}
}

func userID(u *api.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
