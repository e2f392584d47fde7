// ABOUTME: CRUD clients for agents, templates and question/answer pairs
// ABOUTME: List endpoints accept both bare arrays and paginated {"results": [...]} bodies

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/2389/agentdesk/internal/httpclient"
)

// listOf fetches path and decodes either a JSON array or a paginated object
func listOf[T any](ctx context.Context, c *httpclient.Client, path string) ([]T, error) {
	var raw json.RawMessage
	if err := c.DoJSON(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		return items, nil
	}

	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return page.Results, nil
}

func itemPath(base, id string) string {
	return base + url.PathEscape(id) + "/"
}

// AgentService manages agents
type AgentService struct {
	c *httpclient.Client
}

// List returns all agents
func (s *AgentService) List(ctx context.Context) ([]Agent, error) {
	return listOf[Agent](ctx, s.c, PathAgents)
}

// Get returns one agent
func (s *AgentService) Get(ctx context.Context, id string) (*Agent, error) {
	var a Agent
	if err := s.c.DoJSON(ctx, http.MethodGet, itemPath(PathAgents, id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Create adds an agent
func (s *AgentService) Create(ctx context.Context, in AgentInput) (*Agent, error) {
	var a Agent
	if err := s.c.DoJSON(ctx, http.MethodPost, PathAgents, in, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Update replaces an agent's writable fields
func (s *AgentService) Update(ctx context.Context, id string, in AgentInput) (*Agent, error) {
	var a Agent
	if err := s.c.DoJSON(ctx, http.MethodPut, itemPath(PathAgents, id), in, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Delete removes an agent
func (s *AgentService) Delete(ctx context.Context, id string) error {
	return s.c.DoJSON(ctx, http.MethodDelete, itemPath(PathAgents, id), nil, nil)
}

// TemplateService manages templates
type TemplateService struct {
	c *httpclient.Client
}

func (s *TemplateService) List(ctx context.Context) ([]Template, error) {
	return listOf[Template](ctx, s.c, PathTemplates)
}

func (s *TemplateService) Get(ctx context.Context, id string) (*Template, error) {
	var t Template
	if err := s.c.DoJSON(ctx, http.MethodGet, itemPath(PathTemplates, id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TemplateService) Create(ctx context.Context, in TemplateInput) (*Template, error) {
	var t Template
	if err := s.c.DoJSON(ctx, http.MethodPost, PathTemplates, in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TemplateService) Update(ctx context.Context, id string, in TemplateInput) (*Template, error) {
	var t Template
	if err := s.c.DoJSON(ctx, http.MethodPut, itemPath(PathTemplates, id), in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TemplateService) Delete(ctx context.Context, id string) error {
	return s.c.DoJSON(ctx, http.MethodDelete, itemPath(PathTemplates, id), nil, nil)
}

// QuestionService manages question/answer pairs
type QuestionService struct {
	c *httpclient.Client
}

// List returns the pairs for agentID, or every pair when agentID is empty
func (s *QuestionService) List(ctx context.Context, agentID string) ([]Question, error) {
	path := PathQuestions
	if agentID != "" {
		path += "?" + url.Values{"agent": {agentID}}.Encode()
	}
	return listOf[Question](ctx, s.c, path)
}

func (s *QuestionService) Get(ctx context.Context, id string) (*Question, error) {
	var q Question
	if err := s.c.DoJSON(ctx, http.MethodGet, itemPath(PathQuestions, id), nil, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *QuestionService) Create(ctx context.Context, in QuestionInput) (*Question, error) {
	var q Question
	if err := s.c.DoJSON(ctx, http.MethodPost, PathQuestions, in, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *QuestionService) Update(ctx context.Context, id string, in QuestionInput) (*Question, error) {
	var q Question
	if err := s.c.DoJSON(ctx, http.MethodPut, itemPath(PathQuestions, id), in, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *QuestionService) Delete(ctx context.Context, id string) error {
	return s.c.DoJSON(ctx, http.MethodDelete, itemPath(PathQuestions, id), nil, nil)
}
