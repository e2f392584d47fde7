// ABOUTME: Tests for the interceptor-aware HTTP client
// ABOUTME: Validates URL joining, status errors, interceptor order and replay

package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL + "/api/"})
	require.NoError(t, err)
	return c, srv
}

func TestNew_RejectsRelativeBaseURL(t *testing.T) {
	_, err := New(Options{BaseURL: "/api"})
	assert.Error(t, err)
}

func TestClient_URL(t *testing.T) {
	c, err := New(Options{BaseURL: "http://backend.local/api/"})
	require.NoError(t, err)

	assert.Equal(t, "http://backend.local/api/agents/", c.URL("/agents/").String())
	assert.Equal(t, "http://backend.local/api/questions/?agent=a1", c.URL("questions/?agent=a1").String())
	assert.Equal(t, "http://other/x", c.URL("http://other/x").String())
}

func TestClient_DoJSON_DecodesResponse(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/echo/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["say"]})
	})

	var out struct {
		Echo string `json:"echo"`
	}
	err := c.DoJSON(context.Background(), http.MethodPost, "/echo/", map[string]string{"say": "hi"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hi", out.Echo)
}

func TestClient_DoJSON_StatusError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"agent not found"}`))
	})

	err := c.DoJSON(context.Background(), http.MethodGet, "/agents/x/", nil, nil)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "agent not found", se.Message)
	assert.Equal(t, "/api/agents/x/", se.Path)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.False(t, IsStatus(err, http.StatusUnauthorized))
	assert.Contains(t, err.Error(), "404 agent not found")
}

func TestClient_RequestInterceptorsRunInOrder(t *testing.T) {
	var got []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Values("X-Order")
		w.WriteHeader(http.StatusNoContent)
	})

	c.UseRequest(
		func(req *http.Request) (*http.Request, error) {
			req.Header.Add("X-Order", "first")
			return req, nil
		},
		func(req *http.Request) (*http.Request, error) {
			req.Header.Add("X-Order", "second")
			return req, nil
		},
	)

	require.NoError(t, c.DoJSON(context.Background(), http.MethodGet, "/ping/", nil, nil))
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestClient_RequestInterceptorShortCircuits(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	blocked := errors.New("blocked")
	c.UseRequest(func(req *http.Request) (*http.Request, error) {
		return nil, blocked
	})

	err := c.DoJSON(context.Background(), http.MethodGet, "/agents/", nil, nil)
	assert.ErrorIs(t, err, blocked)
	assert.Equal(t, int32(0), hits.Load())
}

func TestClient_ResponseInterceptorCanResubmit(t *testing.T) {
	var hits atomic.Int32
	var bodies []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	resubmitted := false
	c.UseResponse(func(c *Client, req *http.Request, resp *http.Response) (*http.Response, error) {
		if resp.StatusCode != http.StatusServiceUnavailable || resubmitted {
			return resp, nil
		}
		resubmitted = true
		resp.Body.Close()
		retry, err := Replay(req.Context(), req)
		if err != nil {
			return nil, err
		}
		return c.Do(retry)
	})

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, c.DoJSON(context.Background(), http.MethodPost, "/jobs/", map[string]int{"n": 1}, &out))
	assert.True(t, out.OK)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, []string{`{"n":1}`, `{"n":1}`}, bodies)
}

func TestRequestID_SetOnceAndKept(t *testing.T) {
	var ids []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get(RequestIDHeader))
		w.WriteHeader(http.StatusNoContent)
	})
	c.UseRequest(RequestID())

	req, err := c.NewRequest(context.Background(), http.MethodGet, "/a/", nil)
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	retry, err := Replay(context.Background(), req)
	require.NoError(t, err)
	resp, err = c.Do(retry)
	require.NoError(t, err)
	resp.Body.Close()

	require.Len(t, ids, 2)
	assert.NotEmpty(t, ids[0])
	assert.Equal(t, ids[0], ids[1])
}

func TestClient_TransportErrorReturnedUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: url})
	require.NoError(t, err)

	err = c.DoJSON(context.Background(), http.MethodGet, "/x/", nil, nil)
	require.Error(t, err)

	var se *StatusError
	assert.False(t, errors.As(err, &se))
}
