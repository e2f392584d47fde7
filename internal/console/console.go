// ABOUTME: Builds the console's object graph from configuration
// ABOUTME: Store, cookie jar, token store, HTTP client, session container, initializer and guard

package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/agentdesk/internal/api"
	"github.com/2389/agentdesk/internal/auth"
	"github.com/2389/agentdesk/internal/config"
	"github.com/2389/agentdesk/internal/httpclient"
	"github.com/2389/agentdesk/internal/session"
	"github.com/2389/agentdesk/internal/store"
)

// Console is a fully wired session for one process
type Console struct {
	Config      *config.Config
	Store       store.Store
	Jar         *auth.PersistentJar
	Tokens      *auth.TokenStore
	HTTP        *httpclient.Client
	API         *api.Client
	Session     *session.Container
	Refresher   *auth.Refresher
	Probe       *auth.RefreshProbe
	Initializer *session.Initializer
	Guard       *session.Guard

	logger *slog.Logger
}

// Open opens the state database named by cfg and wires a Console on it
func Open(ctx context.Context, cfg *config.Config) (*Console, error) {
	st, err := store.NewSQLiteStore(cfg.Session.StatePath)
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}

	c, err := New(ctx, cfg, st)
	if err != nil {
		st.Close()
		return nil, err
	}
	return c, nil
}

// New wires a Console on an already open store. The Console owns st afterwards.
func New(ctx context.Context, cfg *config.Config, st store.Store) (*Console, error) {
	logger := slog.Default().With("component", "console")

	var cookieRows store.CookieStore
	if cfg.Session.CookiesPersisted() {
		cookieRows = st
	}
	jar, err := auth.NewPersistentJar(ctx, cookieRows)
	if err != nil {
		return nil, err
	}

	httpc, err := httpclient.New(httpclient.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Jar:     jar,
		Logger:  slog.Default().With("component", "http"),
	})
	if err != nil {
		return nil, err
	}
	backend := api.New(httpc)
	tokens := auth.NewTokenStore(st)
	marker := cfg.Session.MarkerCookie

	container := session.NewContainer(session.Options{
		Tokens: tokens,
		State:  st,
		API:    backend.Auth,
		OnReset: func() {
			jar.Expire(httpc.BaseURL(), marker)
		},
	})

	refresher := auth.NewRefresher(backend.Auth)
	probe := auth.NewRefreshProbe(jar, httpc.BaseURL(), marker, container.ForceLogout)

	httpc.UseRequest(httpclient.RequestID())
	auth.NewInterceptor(auth.InterceptorOptions{
		Tokens:         tokens,
		Probe:          probe,
		Refresher:      refresher,
		Session:        container,
		RotationHeader: cfg.Session.RotationHeader,
	}).Install(httpc)

	c := &Console{
		Config:      cfg,
		Store:       st,
		Jar:         jar,
		Tokens:      tokens,
		HTTP:        httpc,
		API:         backend,
		Session:     container,
		Refresher:   refresher,
		Probe:       probe,
		Initializer: session.NewInitializer(container, tokens, refresher),
		Guard: session.NewGuard(session.GuardOptions{
			Container: container,
			Tokens:    tokens,
			Probe:     probe,
			Refresher: refresher,
		}),
		logger: logger,
	}

	logger.Debug("console wired", "base_url", cfg.API.BaseURL, "persist_cookies", cookieRows != nil)
	return c, nil
}

// Start restores the persisted session and runs the initializer once
func (c *Console) Start(ctx context.Context) (session.Outcome, error) {
	if err := c.Session.Hydrate(ctx); err != nil {
		return session.OutcomeIdle, fmt.Errorf("restoring session: %w", err)
	}
	return c.Initializer.Run(ctx)
}

// Navigate asks the guard whether route may render
func (c *Console) Navigate(ctx context.Context, route string) session.Decision {
	return c.Guard.Enter(ctx, route)
}

// Status is a read-only snapshot for display
type Status struct {
	State         session.State
	MarkerPresent bool
	TokenExpiry   time.Time // zero when unknown
	Initializer   session.Lifecycle
	Reconciling   bool
}

// Status reports the session without side effects. Unlike the probe it never
// forces a logout.
func (c *Console) Status() Status {
	st := Status{
		State:       c.Session.State(),
		Initializer: c.Initializer.Lifecycle(),
		Reconciling: c.Guard.Pending(),
	}
	for _, ck := range c.Jar.Cookies(c.HTTP.BaseURL()) {
		if ck.Name == c.Config.Session.MarkerCookie {
			st.MarkerPresent = true
			break
		}
	}
	if tok := c.Tokens.AccessToken(); tok != "" {
		if exp, err := auth.TokenExpiry(tok); err == nil {
			st.TokenExpiry = exp
		}
	}
	return st
}

// Forget drops the local session and every stored cookie, without asking the server
func (c *Console) Forget(ctx context.Context) error {
	c.Session.ForceLogout()
	return errors.Join(c.Jar.Clear(ctx), c.Store.DeleteState(ctx, store.KeyUser, store.KeyAccessToken))
}

// Close releases the state database
func (c *Console) Close() error {
	return c.Store.Close()
}
