// ABOUTME: Request context helpers carrying the single-retry flag
// ABOUTME: A request resubmitted after a refresh is marked so a second 401 passes through

package auth

import "context"

// retriedKey is the key type for the retry flag in context.Context.
type retriedKey struct{}

// WithRetried returns a context marking its request as already retried.
func WithRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey{}, true)
}

// IsRetried reports whether the request owning ctx was already resubmitted once.
func IsRetried(ctx context.Context) bool {
	retried, _ := ctx.Value(retriedKey{}).(bool)
	return retried
}
