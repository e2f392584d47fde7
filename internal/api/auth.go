// ABOUTME: Client for the backend's authentication endpoints
// ABOUTME: Login, signup, refresh, logout and current-user lookups

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/2389/agentdesk/internal/httpclient"
)

// ErrMissingAccessToken is returned when a login or refresh response carries no token
var ErrMissingAccessToken = errors.New("response carries no access token")

// AuthService calls the authentication endpoints
type AuthService struct {
	c *httpclient.Client
}

// NewAuthService creates an AuthService on c
func NewAuthService(c *httpclient.Client) *AuthService {
	return &AuthService{c: c}
}

// loginResponse accepts both {user, access} and {user, tokens: {access}}
type loginResponse struct {
	User   *User  `json:"user"`
	Access string `json:"access"`
	Tokens *struct {
		Access string `json:"access"`
	} `json:"tokens"`
}

func (r *loginResponse) accessToken() string {
	if r.Access != "" {
		return r.Access
	}
	if r.Tokens != nil {
		return r.Tokens.Access
	}
	return ""
}

// Login submits credentials. The server sets the refresh and marker cookies.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	var resp loginResponse
	if err := s.c.DoJSON(ctx, http.MethodPost, PathLogin, creds, &resp); err != nil {
		return nil, err
	}

	access := resp.accessToken()
	if access == "" {
		return nil, fmt.Errorf("login: %w", ErrMissingAccessToken)
	}
	return &LoginResult{User: resp.User, Access: access}, nil
}

// Signup registers a new user
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	var resp struct {
		User *User `json:"user"`
	}
	if err := s.c.DoJSON(ctx, http.MethodPost, PathSignup, req, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, fmt.Errorf("signup: response carries no user")
	}
	return resp.User, nil
}

// Refresh exchanges the refresh cookie for a new access token. The request
// body is empty; the cookie jar authenticates it.
func (s *AuthService) Refresh(ctx context.Context) (string, error) {
	var resp struct {
		Access string `json:"access"`
	}
	if err := s.c.DoJSON(ctx, http.MethodPost, PathRefresh, nil, &resp); err != nil {
		return "", err
	}
	if resp.Access == "" {
		return "", fmt.Errorf("refresh: %w", ErrMissingAccessToken)
	}
	return resp.Access, nil
}

// Logout asks the server to invalidate the refresh cookie
func (s *AuthService) Logout(ctx context.Context) error {
	return s.c.DoJSON(ctx, http.MethodPost, PathLogout, nil, nil)
}

// CurrentUser returns the user the access token belongs to. Accepts both
// {"user": {...}} and a bare user object.
func (s *AuthService) CurrentUser(ctx context.Context) (*User, error) {
	var raw json.RawMessage
	if err := s.c.DoJSON(ctx, http.MethodGet, PathUser, nil, &raw); err != nil {
		return nil, err
	}

	var wrapped struct {
		User *User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}
	if user.ID == "" && user.Email == "" {
		return nil, fmt.Errorf("decoding user: empty user")
	}
	return &user, nil
}
