// ABOUTME: In-memory mock of the REST backend with chi routing
// ABOUTME: Holds users, refresh sessions and domain entities plus hooks for tests

package mockapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/agentdesk/internal/api"
)

// Defaults
const (
	DefaultAccessTTL      = 5 * time.Minute
	DefaultRefreshTTL     = 7 * 24 * time.Hour
	DefaultRefreshCookie  = "refresh"
	DefaultMarkerCookie   = "refresh_token"
	DefaultRotationHeader = "x-new-access-token"
)

// Options configures a Server
type Options struct {
	Secret         []byte
	BasePath       string // mount point, e.g. "/api"; empty mounts at the root
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	RefreshCookie  string
	MarkerCookie   string
	RotationHeader string
	// RotateTokens issues a new access token in RotationHeader on every
	// authenticated response.
	RotateTokens bool
	// NestedLogin answers login with {user, tokens: {access}} instead of {user, access}.
	NestedLogin bool
	Logger      *slog.Logger
}

type account struct {
	user         api.User
	passwordHash string
}

type refreshSession struct {
	userID    string
	expiresAt time.Time
}

// Server is the mock backend
type Server struct {
	opts   Options
	signer *Signer
	logger *slog.Logger

	mu        sync.Mutex
	accounts  map[string]*account // keyed by email
	sessions  map[string]*refreshSession
	agents    map[string]*api.Agent
	templates map[string]*api.Template
	questions map[string]*api.Question

	generation  atomic.Int64
	failRefresh atomic.Bool
	refreshes   atomic.Int64
	logins      atomic.Int64
	requests    atomic.Int64
	now         func() time.Time
}

// New creates a Server
func New(opts Options) *Server {
	if len(opts.Secret) == 0 {
		opts.Secret = []byte("agentdesk-mock-secret")
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = DefaultAccessTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = DefaultRefreshTTL
	}
	if opts.RefreshCookie == "" {
		opts.RefreshCookie = DefaultRefreshCookie
	}
	if opts.MarkerCookie == "" {
		opts.MarkerCookie = DefaultMarkerCookie
	}
	if opts.RotationHeader == "" {
		opts.RotationHeader = DefaultRotationHeader
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		opts:      opts,
		signer:    NewSigner(opts.Secret),
		logger:    logger.With("component", "mockapi"),
		accounts:  make(map[string]*account),
		sessions:  make(map[string]*refreshSession),
		agents:    make(map[string]*api.Agent),
		templates: make(map[string]*api.Template),
		questions: make(map[string]*api.Question),
		now:       time.Now,
	}
}

// Handler returns the HTTP handler serving the backend
func (s *Server) Handler() http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Recoverer, s.logRequests)

	if s.opts.BasePath != "" && s.opts.BasePath != "/" {
		sub := chi.NewRouter()
		s.registerRoutes(sub)
		root.Mount(strings.TrimRight(s.opts.BasePath, "/"), sub)
		return root
	}

	s.registerRoutes(root)
	return root
}

func (s *Server) registerRoutes(r chi.Router) {
	// auth
	r.Post("/auth/login/", s.handleLogin)
	r.Post("/auth/signup/", s.handleSignup)
	r.Post("/auth/refresh/", s.handleRefresh)
	r.Post("/auth/logout/", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/auth/user/", s.handleCurrentUser)

		r.Get("/agents/", s.listAgents)
		r.Post("/agents/", s.createAgent)
		r.Get("/agents/{id}/", s.getAgent)
		r.Put("/agents/{id}/", s.updateAgent)
		r.Delete("/agents/{id}/", s.deleteAgent)

		r.Get("/templates/", s.listTemplates)
		r.Post("/templates/", s.createTemplate)
		r.Get("/templates/{id}/", s.getTemplate)
		r.Put("/templates/{id}/", s.updateTemplate)
		r.Delete("/templates/{id}/", s.deleteTemplate)

		r.Get("/questions/", s.listQuestions)
		r.Post("/questions/", s.createQuestion)
		r.Get("/questions/{id}/", s.getQuestion)
		r.Put("/questions/{id}/", s.updateQuestion)
		r.Delete("/questions/{id}/", s.deleteQuestion)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", r.Header.Get("X-Request-Id"),
			"dur", time.Since(start),
		)
	})
}

// AddUser registers an account directly, bypassing signup
func (s *Server) AddUser(email, password, name string) (*api.User, error) {
	return s.createAccount(email, password, name)
}

// ExpireAccessTokens invalidates every access token issued so far
func (s *Server) ExpireAccessTokens() {
	s.generation.Add(1)
}

// FailRefresh makes the refresh endpoint reject every call while on is true
func (s *Server) FailRefresh(on bool) {
	s.failRefresh.Store(on)
}

// RevokeRefreshSessions forgets every refresh session
func (s *Server) RevokeRefreshSessions() {
	s.mu.Lock()
	s.sessions = make(map[string]*refreshSession)
	s.mu.Unlock()
}

// RefreshCount is the number of refresh calls received
func (s *Server) RefreshCount() int64 {
	return s.refreshes.Load()
}

// RequestCount is the number of requests received on any endpoint
func (s *Server) RequestCount() int64 {
	return s.requests.Load()
}

// LoginCount is the number of successful logins
func (s *Server) LoginCount() int64 {
	return s.logins.Load()
}

// MarkerCookie is the marker cookie name the server sets
func (s *Server) MarkerCookie() string {
	return s.opts.MarkerCookie
}

// IssueAccessToken signs a current-generation token for userID, for tests
func (s *Server) IssueAccessToken(userID string) (string, error) {
	return s.signer.Generate(userID, s.generation.Load(), s.opts.AccessTTL)
}

func (s *Server) createAccount(email, password, name string) (*api.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[email]; exists {
		return nil, fmt.Errorf("an account with this email already exists")
	}
	acct := &account{
		user:         api.User{ID: newID(), Email: email, Name: name},
		passwordHash: string(hash),
	}
	s.accounts[email] = acct

	u := acct.user
	return &u, nil
}

func (s *Server) userByID(id string) (*api.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.user.ID == id {
			u := a.user
			return &u, true
		}
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(v)
}
