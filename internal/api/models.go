// ABOUTME: Wire types for the REST backend's auth and domain endpoints
// ABOUTME: Agents, templates, question/answer pairs and the authenticated user

package api

import "time"

// Endpoint paths relative to the API base URL
const (
	PathLogin   = "/auth/login/"
	PathRefresh = "/auth/refresh/"
	PathSignup  = "/auth/signup/"
	PathLogout  = "/auth/logout/"
	PathUser    = "/auth/user/"

	PathAgents    = "/agents/"
	PathTemplates = "/templates/"
	PathQuestions = "/questions/"
)

// User is the authenticated console user
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Credentials are submitted to the login endpoint
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest registers a new console user
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// LoginResult is the normalized login response
type LoginResult struct {
	User   *User
	Access string
}

// Agent is a conversational configuration entity
type Agent struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	TemplateID  string    `json:"template_id,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AgentInput is the writable subset of Agent
type AgentInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TemplateID  string `json:"template_id,omitempty"`
	Active      bool   `json:"active"`
}

// Template is a reusable prompt body agents are configured from
type Template struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TemplateInput is the writable subset of Template
type TemplateInput struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

// Question is a question/answer pair attached to an agent
type Question struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuestionInput is the writable subset of Question
type QuestionInput struct {
	AgentID  string `json:"agent_id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
