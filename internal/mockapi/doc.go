// Package mockapi is an in-memory implementation of the REST backend the
// console talks to.
//
// It serves the authentication contract (login, signup, refresh, logout,
// current user) with HS256 access tokens, an httponly refresh cookie and a
// readable marker cookie, plus CRUD for agents, templates and questions. Test
// hooks let callers expire every issued access token, make refresh fail and
// count refresh calls, which is what the session layer's tests need.
//
// cmd/agentdesk-mock serves it for local development.
package mockapi
