// ABOUTME: CRUD commands for agents, templates and questions
// ABOUTME: Updates send the current record with only the changed flags applied

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/2389/agentdesk/internal/api"
	"github.com/2389/agentdesk/internal/console"
	"github.com/2389/agentdesk/internal/output"
)

var (
	agentName        string
	agentDescription string
	agentTemplate    string
	agentActive      bool

	templateName string
	templateBody string

	questionAgent  string
	questionText   string
	questionAnswer string

	exportFormat string
	exportOut    string
)

var agentsCmd = &cobra.Command{
	Use:     "agents",
	Aliases: []string{"agent"},
	Short:   "Manage agents",
}

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"template"},
	Short:   "Manage templates",
}

var questionsCmd = &cobra.Command{
	Use:     "questions",
	Aliases: []string{"question", "qa"},
	Short:   "Manage question/answer pairs",
}

func init() {
	agentsCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List agents",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withView(cmd.Context(), "agents", func(c *console.Console) error {
					return showAgents(cmd.Context(), c)
				})
			},
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show an agent",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withView(cmd.Context(), "agents", func(c *console.Console) error {
					a, err := c.API.Agents.Get(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					showAgent(a)
					return nil
				})
			},
		},
		agentCreateCmd(),
		agentUpdateCmd(),
		deleteCmd("agent", "agents", func(ctx context.Context, c *console.Console, id string) error {
			return c.API.Agents.Delete(ctx, id)
		}),
	)

	templatesCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List templates",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withView(cmd.Context(), "templates", func(c *console.Console) error {
					return showTemplates(cmd.Context(), c)
				})
			},
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show a template",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withView(cmd.Context(), "templates", func(c *console.Console) error {
					tpl, err := c.API.Templates.Get(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					showTemplate(tpl)
					return nil
				})
			},
		},
		templateCreateCmd(),
		templateUpdateCmd(),
		deleteCmd("template", "templates", func(ctx context.Context, c *console.Console, id string) error {
			return c.API.Templates.Delete(ctx, id)
		}),
	)

	questionsList := &cobra.Command{
		Use:   "list",
		Short: "List questions, optionally for one agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withView(cmd.Context(), "questions", func(c *console.Console) error {
				return showQuestions(cmd.Context(), c, questionAgent)
			})
		},
	}
	questionsList.Flags().StringVar(&questionAgent, "agent", "", "only questions of this agent")

	questionsCmd.AddCommand(
		questionsList,
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show a question",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withView(cmd.Context(), "questions", func(c *console.Console) error {
					q, err := c.API.Questions.Get(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					showQuestion(q)
					return nil
				})
			},
		},
		questionCreateCmd(),
		questionUpdateCmd(),
		deleteCmd("question", "questions", func(ctx context.Context, c *console.Console, id string) error {
			return c.API.Questions.Delete(ctx, id)
		}),
		questionExportCmd(),
	)

	rootCmd.AddCommand(agentsCmd, templatesCmd, questionsCmd)
}

func agentCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if agentName == "" {
				return fmt.Errorf("--name is required")
			}
			return withView(cmd.Context(), "agents", func(c *console.Console) error {
				a, err := c.API.Agents.Create(cmd.Context(), api.AgentInput{
					Name:        agentName,
					Description: agentDescription,
					TemplateID:  agentTemplate,
					Active:      agentActive,
				})
				if err != nil {
					return err
				}
				printer.Success("Created agent %s (%s)", a.Name, a.ID)
				return nil
			})
		},
	}
	agentFlags(cmd)
	return cmd
}

func agentUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withView(cmd.Context(), "agents", func(c *console.Console) error {
				cur, err := c.API.Agents.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				in := api.AgentInput{
					Name:        cur.Name,
					Description: cur.Description,
					TemplateID:  cur.TemplateID,
					Active:      cur.Active,
				}
				flags := cmd.Flags()
				if flags.Changed("name") {
					in.Name = agentName
				}
				if flags.Changed("description") {
					in.Description = agentDescription
				}
				if flags.Changed("template") {
					in.TemplateID = agentTemplate
				}
				if flags.Changed("active") {
					in.Active = agentActive
				}

				a, err := c.API.Agents.Update(cmd.Context(), cur.ID, in)
				if err != nil {
					return err
				}
				printer.Success("Updated agent %s", a.ID)
				return nil
			})
		},
	}
	agentFlags(cmd)
	return cmd
}

func agentFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&agentName, "name", "", "agent name")
	cmd.Flags().StringVar(&agentDescription, "description", "", "agent description")
	cmd.Flags().StringVar(&agentTemplate, "template", "", "template ID")
	cmd.Flags().BoolVar(&agentActive, "active", false, "whether the agent is active")
}

func templateCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if templateName == "" {
				return fmt.Errorf("--name is required")
			}
			return withView(cmd.Context(), "templates", func(c *console.Console) error {
				tpl, err := c.API.Templates.Create(cmd.Context(), api.TemplateInput{Name: templateName, Body: templateBody})
				if err != nil {
					return err
				}
				printer.Success("Created template %s (%s)", tpl.Name, tpl.ID)
				return nil
			})
		},
	}
	templateFlags(cmd)
	return cmd
}

func templateUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withView(cmd.Context(), "templates", func(c *console.Console) error {
				cur, err := c.API.Templates.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				in := api.TemplateInput{Name: cur.Name, Body: cur.Body}
				if cmd.Flags().Changed("name") {
					in.Name = templateName
				}
				if cmd.Flags().Changed("body") {
					in.Body = templateBody
				}

				tpl, err := c.API.Templates.Update(cmd.Context(), cur.ID, in)
				if err != nil {
					return err
				}
				printer.Success("Updated template %s", tpl.ID)
				return nil
			})
		},
	}
	templateFlags(cmd)
	return cmd
}

func templateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&templateName, "name", "", "template name")
	cmd.Flags().StringVar(&templateBody, "body", "", "template body")
}

func questionCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a question to an agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if questionAgent == "" || questionText == "" {
				return fmt.Errorf("--agent and --question are required")
			}
			return withView(cmd.Context(), "questions", func(c *console.Console) error {
				q, err := c.API.Questions.Create(cmd.Context(), api.QuestionInput{
					AgentID:  questionAgent,
					Question: questionText,
					Answer:   questionAnswer,
				})
				if err != nil {
					return err
				}
				printer.Success("Created question %s", q.ID)
				return nil
			})
		},
	}
	questionFlags(cmd)
	return cmd
}

func questionUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withView(cmd.Context(), "questions", func(c *console.Console) error {
				cur, err := c.API.Questions.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				in := api.QuestionInput{AgentID: cur.AgentID, Question: cur.Question, Answer: cur.Answer}
				if cmd.Flags().Changed("agent") {
					in.AgentID = questionAgent
				}
				if cmd.Flags().Changed("question") {
					in.Question = questionText
				}
				if cmd.Flags().Changed("answer") {
					in.Answer = questionAnswer
				}

				q, err := c.API.Questions.Update(cmd.Context(), cur.ID, in)
				if err != nil {
					return err
				}
				printer.Success("Updated question %s", q.ID)
				return nil
			})
		},
	}
	questionFlags(cmd)
	return cmd
}

func questionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&questionAgent, "agent", "", "agent ID")
	cmd.Flags().StringVar(&questionText, "question", "", "question text")
	cmd.Flags().StringVar(&questionAnswer, "answer", "", "answer text (markdown)")
}

func questionExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an agent's questions as markdown or HTML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if questionAgent == "" {
				return fmt.Errorf("--agent is required")
			}
			if exportFormat != output.FormatMarkdown && exportFormat != output.FormatHTML {
				return fmt.Errorf("unknown format %q (want %s or %s)", exportFormat, output.FormatMarkdown, output.FormatHTML)
			}
			return withView(cmd.Context(), "questions", func(c *console.Console) error {
				agent, err := c.API.Agents.Get(cmd.Context(), questionAgent)
				if err != nil {
					return err
				}
				questions, err := c.API.Questions.List(cmd.Context(), agent.ID)
				if err != nil {
					return err
				}

				if exportOut == "" || exportOut == "-" {
					return output.WriteQuestions(cmd.OutOrStdout(), exportFormat, agent, questions)
				}
				f, err := os.Create(exportOut)
				if err != nil {
					return fmt.Errorf("creating %s: %w", exportOut, err)
				}
				if err := output.WriteQuestions(f, exportFormat, agent, questions); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				printer.Success("Exported %d questions to %s", len(questions), exportOut)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&questionAgent, "agent", "", "agent ID")
	cmd.Flags().StringVar(&exportFormat, "format", output.FormatMarkdown, "markdown or html")
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	return cmd
}

// deleteCmd builds "delete <id>" for a resource
func deleteCmd(noun, route string, del func(ctx context.Context, c *console.Console, id string) error) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withView(cmd.Context(), route, func(c *console.Console) error {
				if err := del(cmd.Context(), c, args[0]); err != nil {
					return err
				}
				printer.Success("Deleted %s %s", noun, args[0])
				return nil
			})
		},
	}
}
