// ABOUTME: Agents, templates and questions CRUD handlers of the mock backend
// ABOUTME: Entities live in memory and are listed in creation order

package mockapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/2389/agentdesk/internal/api"
)

func newID() string {
	return uuid.NewString()
}

// sortedValues returns the map's values ordered by creation time, then id
func sortedValues[T any](m map[string]*T, created func(*T) int64, id func(*T) string) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := created(&out[i]), created(&out[j])
		if ci != cj {
			return ci < cj
		}
		return id(&out[i]) < id(&out[j])
	})
	return out
}

// agents

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := sortedValues(s.agents,
		func(a *api.Agent) int64 { return a.CreatedAt.UnixNano() },
		func(a *api.Agent) string { return a.ID })
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, items)
}

func (s *Server) getAgent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	a, ok := s.agents[chi.URLParam(r, "id")]
	var out api.Agent
	if ok {
		out = *a
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) validAgent(w http.ResponseWriter, in *api.AgentInput) bool {
	if strings.TrimSpace(in.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return false
	}
	if in.TemplateID != "" {
		if _, ok := s.templates[in.TemplateID]; !ok {
			writeError(w, http.StatusBadRequest, "template does not exist")
			return false
		}
	}
	return true
}

func (s *Server) createAgent(w http.ResponseWriter, r *http.Request) {
	var in api.AgentInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validAgent(w, &in) {
		return
	}

	now := s.now().UTC()
	a := &api.Agent{
		ID:          newID(),
		Name:        in.Name,
		Description: in.Description,
		TemplateID:  in.TemplateID,
		Active:      in.Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.agents[a.ID] = a
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) updateAgent(w http.ResponseWriter, r *http.Request) {
	var in api.AgentInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	if !s.validAgent(w, &in) {
		return
	}

	a.Name = in.Name
	a.Description = in.Description
	a.TemplateID = in.TemplateID
	a.Active = in.Active
	a.UpdatedAt = s.now().UTC()
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) deleteAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[id]; !ok {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	delete(s.agents, id)
	for qid, q := range s.questions {
		if q.AgentID == id {
			delete(s.questions, qid)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// templates

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := sortedValues(s.templates,
		func(t *api.Template) int64 { return t.CreatedAt.UnixNano() },
		func(t *api.Template) string { return t.ID })
	s.mu.Unlock()

	// Paginated shape, like the real backend's template listing
	writeJSON(w, http.StatusOK, map[string]any{"count": len(items), "results": items})
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	t, ok := s.templates[chi.URLParam(r, "id")]
	var out api.Template
	if ok {
		out = *t
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createTemplate(w http.ResponseWriter, r *http.Request) {
	var in api.TemplateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	now := s.now().UTC()
	t := &api.Template{ID: newID(), Name: in.Name, Body: in.Body, CreatedAt: now, UpdatedAt: now}

	s.mu.Lock()
	s.templates[t.ID] = t
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) updateTemplate(w http.ResponseWriter, r *http.Request) {
	var in api.TemplateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	t.Name = in.Name
	t.Body = in.Body
	t.UpdatedAt = s.now().UTC()
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[id]; !ok {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	for _, a := range s.agents {
		if a.TemplateID == id {
			writeError(w, http.StatusConflict, "template is used by agent "+a.Name)
			return
		}
	}
	delete(s.templates, id)
	w.WriteHeader(http.StatusNoContent)
}

// questions

func (s *Server) listQuestions(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agent")

	s.mu.Lock()
	items := sortedValues(s.questions,
		func(q *api.Question) int64 { return q.CreatedAt.UnixNano() },
		func(q *api.Question) string { return q.ID })
	s.mu.Unlock()

	if agentID != "" {
		filtered := items[:0]
		for _, q := range items {
			if q.AgentID == agentID {
				filtered = append(filtered, q)
			}
		}
		items = filtered
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) getQuestion(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	q, ok := s.questions[chi.URLParam(r, "id")]
	var out api.Question
	if ok {
		out = *q
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "question not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) validQuestion(w http.ResponseWriter, in *api.QuestionInput) bool {
	if strings.TrimSpace(in.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return false
	}
	if _, ok := s.agents[in.AgentID]; !ok {
		writeError(w, http.StatusBadRequest, "agent does not exist")
		return false
	}
	return true
}

func (s *Server) createQuestion(w http.ResponseWriter, r *http.Request) {
	var in api.QuestionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validQuestion(w, &in) {
		return
	}

	now := s.now().UTC()
	q := &api.Question{
		ID:        newID(),
		AgentID:   in.AgentID,
		Question:  in.Question,
		Answer:    in.Answer,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.questions[q.ID] = q
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) updateQuestion(w http.ResponseWriter, r *http.Request) {
	var in api.QuestionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "question not found")
		return
	}
	if in.AgentID == "" {
		in.AgentID = q.AgentID
	}
	if !s.validQuestion(w, &in) {
		return
	}

	q.AgentID = in.AgentID
	q.Question = in.Question
	q.Answer = in.Answer
	q.UpdatedAt = s.now().UTC()
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		writeError(w, http.StatusNotFound, "question not found")
		return
	}
	delete(s.questions, id)
	w.WriteHeader(http.StatusNoContent)
}
