// ABOUTME: Tests for console output formatting
// ABOUTME: Covers plain and colored lines, tables and question exports

package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/agentdesk/internal/api"
)

func TestPrinter_PlainPrefixes(t *testing.T) {
	var out, errBuf bytes.Buffer
	p := NewPrinterWithWriters(&out, &errBuf, false)

	p.Success("saved %s", "agent")
	p.Info("hello")
	p.Warning("careful")
	p.Error("broken")
	p.Field("Email", "a@b.com")

	assert.Equal(t, "[OK] saved agent\nhello\nEmail:         a@b.com\n", out.String())
	assert.Equal(t, "[WARN] careful\n[ERROR] broken\n", errBuf.String())
}

func TestPrinter_Colors(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinterWithWriters(&out, &out, true)

	p.Success("done")
	assert.Contains(t, out.String(), "\x1b[")
	assert.Contains(t, out.String(), "✓ done")
}

func TestResolveColors(t *testing.T) {
	t.Setenv("TERM", "xterm")
	assert.True(t, ResolveColors(true))
	assert.False(t, ResolveColors(false))

	t.Setenv("NO_COLOR", "1")
	assert.False(t, ResolveColors(true))
}

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, "ID", "Name")
	table.AddRow("a1", "Support")
	table.AddRow("a2", "Sales")

	require.NoError(t, table.Render())
	assert.Equal(t, 2, table.Len())
	assert.Contains(t, buf.String(), "Support")
	assert.Contains(t, buf.String(), "Sales")
	assert.Contains(t, buf.String(), "ID")
}

func TestWriteQuestions(t *testing.T) {
	agent := &api.Agent{Name: "Support", Description: "Front desk"}
	questions := []api.Question{
		{Question: "What are\nyour hours?", Answer: "**9-5** on weekdays"},
		{Question: "Refunds?"},
	}

	var md bytes.Buffer
	require.NoError(t, WriteQuestions(&md, FormatMarkdown, agent, questions))
	assert.Contains(t, md.String(), "# Support\n\nFront desk\n")
	assert.Contains(t, md.String(), "## What are your hours?\n")
	assert.Contains(t, md.String(), "_Unanswered._")

	var page bytes.Buffer
	require.NoError(t, WriteQuestions(&page, FormatHTML, agent, questions))
	assert.Contains(t, page.String(), "<title>Support</title>")
	assert.Contains(t, page.String(), "<h2>What are your hours?</h2>")
	assert.Contains(t, page.String(), "<strong>9-5</strong>")

	assert.Error(t, WriteQuestions(&page, "pdf", agent, questions))
}

func TestQuestionsMarkdown_Empty(t *testing.T) {
	md := QuestionsMarkdown(&api.Agent{Name: "Empty"}, nil)
	assert.Equal(t, "# Empty\n\n_No questions yet._\n", string(md))
}
