// ABOUTME: RefreshProbe infers refresh-token presence from the marker cookie
// ABOUTME: Checks the cookie name only and forces a local logout when it is absent

package auth

import (
	"log/slog"
	"net/http"
	"net/url"
)

// RefreshProbe looks for the non-httponly marker cookie the server sets
// alongside the refresh cookie.
type RefreshProbe struct {
	jar      http.CookieJar
	target   *url.URL
	marker   string
	onAbsent func()
	logger   *slog.Logger
}

// NewRefreshProbe creates a probe reading jar's cookies for target. onAbsent
// runs every time the marker is found missing; it must be safe to call
// repeatedly.
func NewRefreshProbe(jar http.CookieJar, target *url.URL, marker string, onAbsent func()) *RefreshProbe {
	return &RefreshProbe{
		jar:      jar,
		target:   target,
		marker:   marker,
		onAbsent: onAbsent,
		logger:   slog.Default().With("component", "probe"),
	}
}

// IsRefreshTokenPresent reports whether the marker cookie exists
func (p *RefreshProbe) IsRefreshTokenPresent() bool {
	if p.jar != nil {
		for _, c := range p.jar.Cookies(p.target) {
			if c.Name == p.marker {
				return true
			}
		}
	}

	p.logger.Debug("refresh marker absent, forcing logout", "marker", p.marker)
	if p.onAbsent != nil {
		p.onAbsent()
	}
	return false
}
