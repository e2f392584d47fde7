// ABOUTME: Authentication endpoints of the mock backend
// ABOUTME: Bearer access tokens, httponly refresh cookie plus a readable marker cookie

package mockapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/2389/agentdesk/internal/api"
)

// dummyHash keeps login timing constant for unknown accounts
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type userIDKey struct{}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// requireAuth validates the bearer token and its generation
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tok, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tok == "" {
			writeError(w, http.StatusUnauthorized, "authentication credentials were not provided")
			return
		}

		userID, gen, err := s.signer.Verify(tok)
		if errors.Is(err, ErrExpiredToken) || (err == nil && gen != s.generation.Load()) {
			writeError(w, http.StatusUnauthorized, "token expired")
			return
		}
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if s.opts.RotateTokens {
			if rotated, err := s.IssueAccessToken(userID); err == nil {
				w.Header().Set(s.opts.RotationHeader, rotated)
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey{}, userID)))
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds api.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(creds.Email))
	s.mu.Lock()
	acct, ok := s.accounts[email]
	s.mu.Unlock()

	if !ok {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(creds.Password))
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.passwordHash), []byte(creds.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	access, err := s.IssueAccessToken(acct.user.ID)
	if err != nil {
		s.logger.Error("failed to issue access token", "error", err)
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	s.startRefreshSession(w, r, acct.user.ID)
	s.logins.Add(1)
	s.logger.Info("login successful", "email", email)

	user := acct.user
	if s.opts.NestedLogin {
		writeJSON(w, http.StatusOK, map[string]any{
			"user":   user,
			"tokens": map[string]string{"access": access},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "access": access})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req api.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.createAccount(req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshes.Add(1)

	cookie, err := r.Cookie(s.opts.RefreshCookie)
	if err != nil || cookie.Value == "" {
		s.clearCookies(w)
		writeError(w, http.StatusUnauthorized, "refresh token missing")
		return
	}

	s.mu.Lock()
	sess, ok := s.sessions[cookie.Value]
	s.mu.Unlock()

	if s.failRefresh.Load() || !ok || !sess.expiresAt.After(s.now()) {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
		s.clearCookies(w)
		writeError(w, http.StatusUnauthorized, "refresh token invalid")
		return
	}

	access, err := s.IssueAccessToken(sess.userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(s.opts.RefreshCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}
	s.clearCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := s.userByID(userIDFrom(r.Context()))
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) startRefreshSession(w http.ResponseWriter, r *http.Request, userID string) {
	id := newID()
	expires := s.now().Add(s.opts.RefreshTTL)

	s.mu.Lock()
	s.sessions[id] = &refreshSession{userID: userID, expiresAt: expires}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.RefreshCookie,
		Value:    id,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.MarkerCookie,
		Value:    "1",
		Path:     "/",
		Expires:  expires,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookies(w http.ResponseWriter) {
	for _, name := range []string{s.opts.RefreshCookie, s.opts.MarkerCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: name == s.opts.RefreshCookie,
		})
	}
}
