// Package console assembles the session stack for one process and exposes the
// two entry points the command line needs: Start, which restores and
// reconciles the session once, and Navigate, which runs the guard for a view.
package console
