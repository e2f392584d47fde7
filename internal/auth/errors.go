// ABOUTME: Sentinel errors for the session credential layer
// ABOUTME: ErrSessionExpired is the single user-facing AuthExpired error

package auth

import "errors"

var (
	// ErrSessionExpired is returned when no refresh is possible or the refresh failed.
	// The session has already been logged out locally when it is returned.
	ErrSessionExpired = errors.New("session expired, please log in again")

	ErrMalformedToken = errors.New("malformed access token")
	ErrNoExpiry       = errors.New("access token has no expiry claim")
)
