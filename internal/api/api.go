// ABOUTME: Aggregate client exposing every backend service on one httpclient
// ABOUTME: Constructed once per console and shared by the session layer and commands

package api

import "github.com/2389/agentdesk/internal/httpclient"

// Client groups the backend services
type Client struct {
	Auth      *AuthService
	Agents    *AgentService
	Templates *TemplateService
	Questions *QuestionService
}

// New creates a Client whose services all share c
func New(c *httpclient.Client) *Client {
	return &Client{
		Auth:      NewAuthService(c),
		Agents:    &AgentService{c: c},
		Templates: &TemplateService{c: c},
		Questions: &QuestionService{c: c},
	}
}
