// ABOUTME: Rendering shared by one-shot commands and the interactive shell
// ABOUTME: Tables for lists, aligned fields for single records

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/2389/agentdesk/internal/api"
	"github.com/2389/agentdesk/internal/console"
	"github.com/2389/agentdesk/internal/output"
)

func showWhoami(ctx context.Context, c *console.Console) error {
	user, err := c.Session.FetchUserData(ctx)
	if err != nil {
		return err
	}
	printer.Field("ID", user.ID)
	printer.Field("Email", user.Email)
	if user.Name != "" {
		printer.Field("Name", user.Name)
	}
	return nil
}

func showStatus(c *console.Console) {
	st := c.Status()
	printer.Field("API", c.Config.API.BaseURL)
	printer.Field("State", c.Config.Session.StatePath)
	printer.Field("Logged in", st.State.IsAuthenticated)
	if st.State.User != nil {
		printer.Field("User", displayName(st.State.User))
	}
	printer.Field("Token expiry", expiryText(st))
	printer.Field("Refresh cookie", st.MarkerPresent)
	printer.Field("Initializer", st.Initializer)
	if st.Reconciling {
		printer.Field("Guard", "reconciling")
	}
	if st.State.Error != "" {
		printer.Field("Last error", st.State.Error)
	}
}

func showAgents(ctx context.Context, c *console.Console) error {
	agents, err := c.API.Agents.List(ctx)
	if err != nil {
		return err
	}
	if len(agents) == 0 {
		printer.Info("No agents.")
		return nil
	}

	t := output.NewTable(printer.Out(), "ID", "Name", "Template", "Active", "Updated")
	for _, a := range agents {
		t.AddRow(a.ID, a.Name, a.TemplateID, yesNo(a.Active), ago(a.UpdatedAt))
	}
	return t.Render()
}

func showAgent(a *api.Agent) {
	printer.Field("ID", a.ID)
	printer.Field("Name", a.Name)
	printer.Field("Description", a.Description)
	printer.Field("Template", a.TemplateID)
	printer.Field("Active", yesNo(a.Active))
	printer.Field("Created", ago(a.CreatedAt))
	printer.Field("Updated", ago(a.UpdatedAt))
}

func showTemplates(ctx context.Context, c *console.Console) error {
	templates, err := c.API.Templates.List(ctx)
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		printer.Info("No templates.")
		return nil
	}

	t := output.NewTable(printer.Out(), "ID", "Name", "Body", "Updated")
	for _, tpl := range templates {
		t.AddRow(tpl.ID, tpl.Name, truncate(tpl.Body, 48), ago(tpl.UpdatedAt))
	}
	return t.Render()
}

func showTemplate(tpl *api.Template) {
	printer.Field("ID", tpl.ID)
	printer.Field("Name", tpl.Name)
	printer.Field("Updated", ago(tpl.UpdatedAt))
	fmt.Fprintf(printer.Out(), "\n%s\n", tpl.Body)
}

func showQuestions(ctx context.Context, c *console.Console, agentID string) error {
	questions, err := c.API.Questions.List(ctx, agentID)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		printer.Info("No questions.")
		return nil
	}

	t := output.NewTable(printer.Out(), "ID", "Agent", "Question", "Answer")
	for _, q := range questions {
		t.AddRow(q.ID, q.AgentID, truncate(q.Question, 40), truncate(q.Answer, 40))
	}
	return t.Render()
}

func showQuestion(q *api.Question) {
	printer.Field("ID", q.ID)
	printer.Field("Agent", q.AgentID)
	printer.Field("Question", q.Question)
	printer.Field("Answer", q.Answer)
	printer.Field("Updated", ago(q.UpdatedAt))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

// truncate shortens s to n runes on a single line
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
