// ABOUTME: Tests for the session container, initializer and guard
// ABOUTME: Covers the reducer transitions, run-once startup and guard decisions

package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/agentdesk/internal/api"
	"github.com/2389/agentdesk/internal/auth"
	"github.com/2389/agentdesk/internal/store"
)

// fakeAPI is a scripted AuthAPI.
type fakeAPI struct {
	mu         sync.Mutex
	loginRes   *api.LoginResult
	loginErr   error
	logoutErr  error
	user       *api.User
	userErr    error
	loginCalls int
	logouts    int
}

func (f *fakeAPI) Login(ctx context.Context, creds api.Credentials) (*api.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	return f.loginRes, f.loginErr
}

func (f *fakeAPI) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	return f.logoutErr
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (*api.User, error) {
	return f.user, f.userErr
}

type fakeRefresher struct {
	token string
	calls atomic.Int32
	delay time.Duration
}

func (f *fakeRefresher) RefreshAccessToken(ctx context.Context) string {
	f.calls.Add(1)
	time.Sleep(f.delay)
	return f.token
}

type fakeProbe struct {
	present bool
	calls   int
}

func (f *fakeProbe) IsRefreshTokenPresent() bool {
	f.calls++
	return f.present
}

func newTestContainer(t *testing.T, a AuthAPI) (*Container, *auth.TokenStore, *store.MockStore) {
	t.Helper()
	st := store.NewMockStore()
	tokens := auth.NewTokenStore(st)
	c := NewContainer(Options{Tokens: tokens, State: st, API: a})
	return c, tokens, st
}

var testUser = &api.User{ID: "u1", Email: "a@b.com", Name: "Ada"}

func TestContainer_LoginSuccess(t *testing.T) {
	fa := &fakeAPI{loginRes: &api.LoginResult{User: testUser, Access: "jwt-1"}}
	c, tokens, st := newTestContainer(t, fa)

	user, err := c.Login(context.Background(), api.Credentials{Email: "a@b.com", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, testUser, user)

	s := c.State()
	assert.True(t, s.IsAuthenticated)
	assert.False(t, s.IsLoading)
	assert.Equal(t, "jwt-1", s.AccessToken)
	assert.Equal(t, testUser, s.User)
	assert.Equal(t, "jwt-1", tokens.AccessToken())
	assert.Equal(t, []string{store.KeyAccessToken, store.KeyUser}, st.StateKeys())
}

func TestContainer_LoginFailureClearsToken(t *testing.T) {
	fa := &fakeAPI{loginErr: errors.New("invalid credentials")}
	c, tokens, _ := newTestContainer(t, fa)
	require.NoError(t, c.SetTokens(context.Background(), "old"))

	_, err := c.Login(context.Background(), api.Credentials{Email: "a@b.com", Password: "bad"})
	require.Error(t, err)

	s := c.State()
	assert.False(t, s.IsAuthenticated)
	assert.Equal(t, "", s.AccessToken)
	assert.Contains(t, s.Error, "invalid credentials")
	assert.Equal(t, "", tokens.AccessToken())
}

func TestContainer_LoginValidation(t *testing.T) {
	tests := []struct {
		name    string
		creds   api.Credentials
		field   string
		message string
	}{
		{"empty email", api.Credentials{Password: "p"}, "email", "email is required"},
		{"malformed email", api.Credentials{Email: "not-an-email", Password: "p"}, "email", "email must be a valid email address"},
		{"display name", api.Credentials{Email: "Ada <a@b.com>", Password: "p"}, "email", "email must be a valid email address"},
		{"empty password", api.Credentials{Email: "a@b.com"}, "password", "password is required"},
		{"both empty", api.Credentials{Email: "  "}, "email", "email is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := &fakeAPI{}
			c, _, _ := newTestContainer(t, fa)
			updates, cancel := c.Subscribe()
			defer cancel()

			_, err := c.Login(context.Background(), tt.creds)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, tt.message, ve.Message)
			assert.Equal(t, 0, fa.loginCalls)
			assert.Equal(t, InitialState(), c.State())
			assert.Empty(t, updates)
		})
	}
}

func TestContainer_SetTokens(t *testing.T) {
	c, tokens, _ := newTestContainer(t, &fakeAPI{})
	ctx := context.Background()

	require.NoError(t, c.SetTokens(ctx, "X"))
	assert.Equal(t, "X", tokens.AccessToken())
	assert.True(t, c.State().IsAuthenticated)

	require.NoError(t, c.SetTokens(ctx, ""))
	assert.Equal(t, "", tokens.AccessToken())
	assert.False(t, c.State().IsAuthenticated)
}

func TestContainer_SetTokensPersistFailureKeepsStateConsistent(t *testing.T) {
	c, tokens, st := newTestContainer(t, &fakeAPI{})
	require.NoError(t, c.SetTokens(context.Background(), "old"))

	st.FailWrites = true
	assert.Error(t, c.SetTokens(context.Background(), "new"))
	assert.Equal(t, "old", tokens.AccessToken())
	assert.Equal(t, "old", c.State().AccessToken)
}

func TestContainer_LogoutResetsEverything(t *testing.T) {
	fa := &fakeAPI{
		loginRes:  &api.LoginResult{User: testUser, Access: "jwt-1"},
		logoutErr: errors.New("backend down"),
	}
	c, tokens, st := newTestContainer(t, fa)
	var resets int
	c.onReset = func() { resets++ }

	_, err := c.Login(context.Background(), api.Credentials{Email: "a@b.com", Password: "p"})
	require.NoError(t, err)

	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, InitialState(), c.State())
	assert.Equal(t, "", tokens.AccessToken())
	assert.Empty(t, st.StateKeys())
	assert.Equal(t, 1, fa.logouts)
	assert.Equal(t, 1, resets)
}

func TestContainer_ForceLogoutSkipsBackend(t *testing.T) {
	fa := &fakeAPI{}
	c, _, _ := newTestContainer(t, fa)
	require.NoError(t, c.SetTokens(context.Background(), "tok"))

	c.ForceLogout()
	assert.Equal(t, InitialState(), c.State())
	assert.Equal(t, 0, fa.logouts)
}

func TestContainer_FetchUserData(t *testing.T) {
	fa := &fakeAPI{user: testUser}
	c, _, st := newTestContainer(t, fa)
	ctx := context.Background()

	_, err := c.FetchUserData(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, c.SetTokens(ctx, "tok"))
	user, err := c.FetchUserData(ctx)
	require.NoError(t, err)
	assert.Equal(t, testUser, user)
	assert.Equal(t, testUser, c.State().User)
	assert.Contains(t, st.StateKeys(), store.KeyUser)

	fa.userErr = errors.New("boom")
	_, err = c.FetchUserData(ctx)
	require.Error(t, err)
	s := c.State()
	assert.Equal(t, "boom", s.Error)
	assert.Equal(t, "tok", s.AccessToken)
	assert.False(t, s.IsLoading)
}

func TestContainer_Hydrate(t *testing.T) {
	ctx := context.Background()
	st := store.NewMockStore()
	require.NoError(t, st.PutState(ctx, store.KeyAccessToken, "persisted"))
	require.NoError(t, st.PutState(ctx, store.KeyUser, `{"id":"u1","email":"a@b.com"}`))

	tokens := auth.NewTokenStore(st)
	c := NewContainer(Options{Tokens: tokens, State: st, API: &fakeAPI{}})
	require.NoError(t, c.Hydrate(ctx))

	s := c.State()
	assert.True(t, s.IsAuthenticated)
	assert.Equal(t, "persisted", s.AccessToken)
	require.NotNil(t, s.User)
	assert.Equal(t, "u1", s.User.ID)
}

func TestContainer_SubscribeSeesLatest(t *testing.T) {
	c, _, _ := newTestContainer(t, &fakeAPI{})
	updates, cancel := c.Subscribe()

	require.NoError(t, c.SetTokens(context.Background(), "a"))
	require.NoError(t, c.SetTokens(context.Background(), "b"))

	latest := <-updates
	assert.Equal(t, "b", latest.AccessToken)

	cancel()
	cancel()
	_, open := <-updates
	assert.False(t, open)
}

func TestInitializer_NoToken(t *testing.T) {
	c, tokens, _ := newTestContainer(t, &fakeAPI{})
	r := &fakeRefresher{token: "new"}
	initr := NewInitializer(c, tokens, r)

	outcome, err := initr.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeIdle, outcome)
	assert.Equal(t, int32(0), r.calls.Load())
	assert.Equal(t, Done, initr.Lifecycle())
}

func TestInitializer_RefreshesStoredToken(t *testing.T) {
	c, tokens, _ := newTestContainer(t, &fakeAPI{})
	require.NoError(t, tokens.SetAccessToken(context.Background(), "stale"))
	r := &fakeRefresher{token: "fresh"}

	outcome, err := NewInitializer(c, tokens, r).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeAuthenticated, outcome)
	assert.Equal(t, "fresh", c.State().AccessToken)
	assert.Equal(t, "fresh", tokens.AccessToken())
}

func TestInitializer_RefreshFailureGoesIdle(t *testing.T) {
	c, tokens, _ := newTestContainer(t, &fakeAPI{})
	require.NoError(t, tokens.SetAccessToken(context.Background(), "stale"))

	outcome, err := NewInitializer(c, tokens, &fakeRefresher{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeIdle, outcome)
	assert.Equal(t, "", tokens.AccessToken())
	assert.False(t, c.State().IsAuthenticated)
}

func TestInitializer_RunsOnce(t *testing.T) {
	c, tokens, _ := newTestContainer(t, &fakeAPI{})
	require.NoError(t, tokens.SetAccessToken(context.Background(), "stale"))
	r := &fakeRefresher{token: "fresh", delay: 20 * time.Millisecond}
	initr := NewInitializer(c, tokens, r)

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 8)
	for i := range outcomes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i], _ = initr.Run(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), r.calls.Load())
	for _, o := range outcomes {
		assert.Equal(t, OutcomeAuthenticated, o)
	}

	again, err := initr.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeAuthenticated, again)
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestGuard_PublicRoutesPass(t *testing.T) {
	c, tokens, _ := newTestContainer(t, &fakeAPI{})
	probe := &fakeProbe{}
	g := NewGuard(GuardOptions{Container: c, Tokens: tokens, Probe: probe, Refresher: &fakeRefresher{}})

	assert.True(t, g.Enter(context.Background(), RouteLogin).Allow)
	assert.True(t, g.Enter(context.Background(), RouteSignup).Allow)
	assert.Equal(t, 0, probe.calls)
}

func TestGuard_AdoptsStoredToken(t *testing.T) {
	c, tokens, _ := newTestContainer(t, &fakeAPI{})
	require.NoError(t, tokens.SetAccessToken(context.Background(), "stored"))
	probe := &fakeProbe{}
	g := NewGuard(GuardOptions{Container: c, Tokens: tokens, Probe: probe, Refresher: &fakeRefresher{}})

	d := g.Enter(context.Background(), "agents")
	assert.True(t, d.Allow)
	assert.Equal(t, "stored", c.State().AccessToken)
	assert.True(t, c.State().IsAuthenticated)
	assert.Equal(t, 0, probe.calls)
}

func TestGuard_NoMarkerRedirects(t *testing.T) {
	c, tokens, _ := newTestContainer(t, &fakeAPI{})
	r := &fakeRefresher{token: "never"}
	g := NewGuard(GuardOptions{Container: c, Tokens: tokens, Probe: &fakeProbe{}, Refresher: r})

	d := g.Enter(context.Background(), "agents")
	assert.False(t, d.Allow)
	assert.Equal(t, RouteLogin, d.Redirect)
	assert.Equal(t, ReasonNoRefreshMarker, d.Reason)
	assert.Equal(t, int32(0), r.calls.Load())
}

func TestGuard_RefreshesWithMarker(t *testing.T) {
	c, tokens, _ := newTestContainer(t, &fakeAPI{})
	g := NewGuard(GuardOptions{
		Container: c, Tokens: tokens,
		Probe:     &fakeProbe{present: true},
		Refresher: &fakeRefresher{token: "renewed"},
	})

	d := g.Enter(context.Background(), "templates")
	assert.True(t, d.Allow)
	assert.Equal(t, "renewed", tokens.AccessToken())
	assert.False(t, g.Pending())
}

func TestGuard_RefreshFailureRedirects(t *testing.T) {
	c, tokens, _ := newTestContainer(t, &fakeAPI{})
	g := NewGuard(GuardOptions{
		Container: c, Tokens: tokens,
		Probe:     &fakeProbe{present: true},
		Refresher: &fakeRefresher{},
	})

	d := g.Enter(context.Background(), "questions")
	assert.False(t, d.Allow)
	assert.Equal(t, RouteLogin, d.Redirect)
	assert.Equal(t, ReasonRefreshFailed, d.Reason)
	assert.Equal(t, InitialState(), c.State())
}

func TestGuard_PendingDuringReconciliation(t *testing.T) {
	c, tokens, _ := newTestContainer(t, &fakeAPI{})
	g := NewGuard(GuardOptions{
		Container: c, Tokens: tokens,
		Probe:     &fakeProbe{present: true},
		Refresher: &fakeRefresher{token: "slow", delay: 100 * time.Millisecond},
	})

	done := make(chan Decision)
	go func() { done <- g.Enter(context.Background(), "agents") }()

	assert.Eventually(t, g.Pending, time.Second, time.Millisecond)
	d := <-done
	assert.True(t, d.Allow)
	assert.False(t, g.Pending())
}

func TestReduce_IsAuthenticatedTracksToken(t *testing.T) {
	s := reduce(InitialState(), action{kind: actionTokensSet, access: "t"})
	assert.True(t, s.IsAuthenticated)
	s = reduce(s, action{kind: actionTokensSet})
	assert.False(t, s.IsAuthenticated)
	s = reduce(s, action{kind: actionHydrated, user: testUser})
	assert.Nil(t, s.User)
}
