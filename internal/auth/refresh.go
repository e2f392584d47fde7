// ABOUTME: Refresher exchanges the refresh cookie for a new access token
// ABOUTME: Every failure collapses to an empty token; concurrent calls share one request

package auth

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// refreshTimeout bounds the shared refresh call, which outlives any single caller
const refreshTimeout = 30 * time.Second

// TokenRefresher performs the refresh call against the backend
type TokenRefresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Refresher wraps a TokenRefresher behind a never-failing contract
type Refresher struct {
	client TokenRefresher
	group  singleflight.Group
	logger *slog.Logger
}

// NewRefresher creates a Refresher calling client
func NewRefresher(client TokenRefresher) *Refresher {
	return &Refresher{
		client: client,
		logger: slog.Default().With("component", "refresher"),
	}
}

// RefreshAccessToken returns a new access token, or "" if the refresh failed
// for any reason. The caller persists the token. A caller whose ctx ends
// gets "" without cancelling the call other callers are waiting on.
func (r *Refresher) RefreshAccessToken(ctx context.Context) string {
	ch := r.group.DoChan("refresh", func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return r.client.Refresh(callCtx)
	})

	select {
	case <-ctx.Done():
		r.logger.Debug("stopped waiting for token refresh", "error", ctx.Err())
		return ""
	case res := <-ch:
		if res.Err != nil {
			r.logger.Info("token refresh failed", "error", res.Err)
			return ""
		}
		tok, _ := res.Val.(string)
		r.logger.Debug("token refreshed", "shared", res.Shared)
		return tok
	}
}
