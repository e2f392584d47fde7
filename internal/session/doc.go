// Package session owns the console's authentication state.
//
// Container is the single source of truth: a State value changed only by a
// reducer over a closed set of actions (login, token adoption, user fetch,
// reset). Observers receive snapshots through Subscribe.
//
// Initializer reconciles stored credentials with the server exactly once per
// process. Guard runs its own reconciliation on every protected view entry
// and decides whether the view renders or the user is sent to login.
package session
