// Package auth implements the client side of the session's credential handling.
//
// # Components
//
//   - TokenStore: the single authority for the access token. It keeps an
//     in-memory copy and the persisted "tokens.access" slot in sync under one
//     lock, with exactly two mutation entry points.
//   - PersistentJar: an http.CookieJar backed by the store so the httponly
//     refresh cookie and its marker survive between runs.
//   - RefreshProbe: reports whether the marker cookie is present. It never
//     reads the cookie's value, and on absence it forces a local logout.
//   - Refresher: calls the refresh endpoint and collapses every failure into
//     an empty token.
//   - Interceptor: request and response interceptors for httpclient that
//     attach the bearer token, short-circuit when no refresh is possible,
//     apply rotated tokens and run the single refresh-and-retry cycle on 401.
//
// # Failing closed
//
// Any doubt about refresh viability resolves to a forced logout and
// ErrSessionExpired. The refresh credential itself is only ever an httponly
// cookie handled by the jar; nothing in this package reads or persists it.
package auth
