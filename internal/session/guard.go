// ABOUTME: Route guard reconciling the session on every protected view entry
// ABOUTME: Adopts a known token, refreshes when a marker exists, otherwise redirects to login

package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/2389/agentdesk/internal/auth"
)

// Public routes
const (
	RouteLogin  = "login"
	RouteSignup = "signup"
)

// Redirect reasons
const (
	ReasonNoRefreshMarker = "no refresh marker"
	ReasonRefreshFailed   = "refresh failed"
)

// Decision is the guard's verdict for one navigation
type Decision struct {
	Allow    bool
	Redirect string // route to show instead when Allow is false
	Reason   string
}

func allow() Decision {
	return Decision{Allow: true}
}

// RefreshProber reports refresh-token presence
type RefreshProber interface {
	IsRefreshTokenPresent() bool
}

// GuardOptions configures a Guard
type GuardOptions struct {
	Container    *Container
	Tokens       *auth.TokenStore
	Probe        RefreshProber
	Refresher    AccessTokenRefresher
	PublicRoutes []string // defaults to login and signup
	LoginRoute   string   // defaults to RouteLogin
}

// Guard gates protected routes
type Guard struct {
	mu      sync.Mutex
	pending atomic.Bool

	container  *Container
	tokens     *auth.TokenStore
	probe      RefreshProber
	refresher  AccessTokenRefresher
	public     map[string]bool
	loginRoute string
	logger     *slog.Logger
}

// NewGuard creates a Guard
func NewGuard(opts GuardOptions) *Guard {
	routes := opts.PublicRoutes
	if routes == nil {
		routes = []string{RouteLogin, RouteSignup}
	}
	public := make(map[string]bool, len(routes))
	for _, r := range routes {
		public[r] = true
	}

	login := opts.LoginRoute
	if login == "" {
		login = RouteLogin
	}

	return &Guard{
		container:  opts.Container,
		tokens:     opts.Tokens,
		probe:      opts.Probe,
		refresher:  opts.Refresher,
		public:     public,
		loginRoute: login,
		logger:     slog.Default().With("component", "guard"),
	}
}

// Pending reports whether a reconciliation is in flight. Frontends that render
// concurrently with Enter show nothing while it is true; callers of Enter
// simply block.
func (g *Guard) Pending() bool {
	return g.pending.Load()
}

// IsPublic reports whether route skips the guard
func (g *Guard) IsPublic(route string) bool {
	return g.public[route]
}

// Enter reconciles the session for route. Only one reconciliation runs at a
// time; later navigations wait for the earlier one to settle.
func (g *Guard) Enter(ctx context.Context, route string) Decision {
	if g.public[route] {
		return allow()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending.Store(true)
	defer g.pending.Store(false)

	tok := g.container.State().AccessToken
	if tok == "" {
		tok = g.tokens.AccessToken()
	}
	if tok != "" {
		if err := g.container.SetTokens(ctx, tok); err != nil {
			g.logger.Warn("failed to adopt token", "error", err)
		}
		return allow()
	}

	if !g.probe.IsRefreshTokenPresent() {
		return g.redirect(route, ReasonNoRefreshMarker)
	}

	tok = g.refresher.RefreshAccessToken(ctx)
	if tok == "" {
		return g.redirect(route, ReasonRefreshFailed)
	}
	if err := g.container.SetTokens(ctx, tok); err != nil {
		g.logger.Warn("failed to persist refreshed token", "error", err)
	}
	return allow()
}

func (g *Guard) redirect(route, reason string) Decision {
	g.container.ForceLogout()
	g.logger.Debug("redirecting to login", "route", route, "reason", reason)
	return Decision{Redirect: g.loginRoute, Reason: reason}
}
