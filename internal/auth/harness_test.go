// ABOUTME: Test harness wiring the auth components around an httptest server
// ABOUTME: Records token updates and forced logouts through a fake session

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/2389/agentdesk/internal/api"
	"github.com/2389/agentdesk/internal/httpclient"
	"github.com/2389/agentdesk/internal/store"
)

const testMarker = "refresh_token"

// fakeSession records what the interceptor pushes into the session.
type fakeSession struct {
	mu      sync.Mutex
	tokens  *TokenStore
	jar     *PersistentJar
	set     []string
	logouts int
	onReset func()
}

func (f *fakeSession) SetTokens(ctx context.Context, access string) error {
	f.mu.Lock()
	f.set = append(f.set, access)
	f.mu.Unlock()
	return f.tokens.SetAccessToken(ctx, access)
}

func (f *fakeSession) ForceLogout() {
	f.mu.Lock()
	f.logouts++
	f.mu.Unlock()
	_ = f.tokens.ClearAccessToken(context.Background())
	if f.onReset != nil {
		f.onReset()
	}
}

func (f *fakeSession) snapshot() ([]string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.set...), f.logouts
}

type harness struct {
	srv     *httptest.Server
	client  *httpclient.Client
	tokens  *TokenStore
	jar     *PersistentJar
	probe   *RefreshProbe
	session *fakeSession
	store   *store.MockStore
}

// newHarness wires the auth components around a test server the way the
// console does.
func newHarness(t *testing.T, handler http.Handler) *harness {
	t.Helper()
	ctx := context.Background()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	st := store.NewMockStore()
	jar, err := NewPersistentJar(ctx, st)
	require.NoError(t, err)

	client, err := httpclient.New(httpclient.Options{BaseURL: srv.URL + "/api", Jar: jar})
	require.NoError(t, err)

	tokens := NewTokenStore(st)
	sess := &fakeSession{tokens: tokens, jar: jar}
	sess.onReset = func() { jar.Expire(client.BaseURL(), testMarker) }

	probe := NewRefreshProbe(jar, client.BaseURL(), testMarker, sess.ForceLogout)
	NewInterceptor(InterceptorOptions{
		Tokens:    tokens,
		Probe:     probe,
		Refresher: NewRefresher(api.NewAuthService(client)),
		Session:   sess,
	}).Install(client)

	return &harness{
		srv:     srv,
		client:  client,
		tokens:  tokens,
		jar:     jar,
		probe:   probe,
		session: sess,
		store:   st,
	}
}

// setMarker plants the marker cookie as if a login had set it.
func (h *harness) setMarker() {
	h.jar.SetCookies(h.client.BaseURL(), []*http.Cookie{{Name: testMarker, Value: "1", Path: "/"}})
}
