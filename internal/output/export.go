// ABOUTME: Exports an agent's question/answer pairs
// ABOUTME: Markdown directly, HTML through goldmark

package output

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/2389/agentdesk/internal/api"
)

// Export formats
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// QuestionsMarkdown renders an agent's question/answer pairs as a markdown document
func QuestionsMarkdown(agent *api.Agent, questions []api.Question) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", agent.Name)
	if agent.Description != "" {
		fmt.Fprintf(&buf, "%s\n\n", agent.Description)
	}
	if len(questions) == 0 {
		buf.WriteString("_No questions yet._\n")
		return buf.Bytes()
	}

	for _, q := range questions {
		fmt.Fprintf(&buf, "## %s\n\n", oneLine(q.Question))
		answer := strings.TrimSpace(q.Answer)
		if answer == "" {
			answer = "_Unanswered._"
		}
		fmt.Fprintf(&buf, "%s\n\n", answer)
	}
	return buf.Bytes()
}

// WriteQuestions writes the export in format to w
func WriteQuestions(w io.Writer, format string, agent *api.Agent, questions []api.Question) error {
	md := QuestionsMarkdown(agent, questions)

	switch format {
	case "", FormatMarkdown:
		_, err := w.Write(md)
		return err
	case FormatHTML:
		var body bytes.Buffer
		if err := goldmark.Convert(md, &body); err != nil {
			return fmt.Errorf("rendering markdown: %w", err)
		}
		_, err := fmt.Fprintf(w,
			"<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n%s</body>\n</html>\n",
			html.EscapeString(agent.Name), body.String())
		return err
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// oneLine collapses whitespace so a question fits a heading
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
