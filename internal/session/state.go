// ABOUTME: Session state value and the reducer that is its only mutator
// ABOUTME: Actions mirror the container's transition table

package session

import "github.com/2389/agentdesk/internal/api"

// State is a snapshot of the session. IsAuthenticated is true iff AccessToken != "".
type State struct {
	AccessToken     string
	User            *api.User
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// InitialState is the logged-out state
func InitialState() State {
	return State{}
}

type actionKind int

const (
	actionLoginStarted actionKind = iota
	actionLoginSucceeded
	actionLoginFailed
	actionTokensSet
	actionFetchStarted
	actionUserFetched
	actionUserFetchFailed
	actionHydrated
	actionReset
)

type action struct {
	kind   actionKind
	access string
	user   *api.User
	err    string
}

func reduce(s State, a action) State {
	switch a.kind {
	case actionLoginStarted:
		s.IsLoading = true
		s.Error = ""
	case actionLoginSucceeded:
		s.AccessToken = a.access
		s.User = a.user
		s.IsAuthenticated = true
		s.IsLoading = false
		s.Error = ""
	case actionLoginFailed:
		s.AccessToken = ""
		s.IsAuthenticated = false
		s.IsLoading = false
		s.Error = a.err
	case actionTokensSet:
		s.AccessToken = a.access
		s.IsAuthenticated = a.access != ""
	case actionFetchStarted:
		s.IsLoading = true
	case actionUserFetched:
		s.User = a.user
		s.IsLoading = false
		s.Error = ""
	case actionUserFetchFailed:
		s.IsLoading = false
		s.Error = a.err
	case actionHydrated:
		s.AccessToken = a.access
		s.IsAuthenticated = a.access != ""
		if s.IsAuthenticated {
			s.User = a.user
		}
	case actionReset:
		return InitialState()
	}
	return s
}
