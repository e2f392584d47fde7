// ABOUTME: Interactive console keeping one session open across commands
// ABOUTME: Each view is entered through the guard, like a route change in a browser

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389/agentdesk/internal/console"
	"github.com/2389/agentdesk/internal/session"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive console",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openConsole(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()
		return runShell(cmd.Context(), c, os.Stdin, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

const shellHelp = `Commands:
  agents                 list agents
  templates              list templates
  questions [agent-id]   list questions
  whoami                 show the logged-in user
  status                 show the session state
  login [email]          start a session
  logout                 end the session
  help                   this text
  exit                   leave the shell`

// runShell reads commands from in until EOF or exit
func runShell(ctx context.Context, c *console.Console, in io.Reader, out io.Writer) error {
	states, unsubscribe := c.Session.Subscribe()
	defer unsubscribe()

	authenticated := c.Session.State().IsAuthenticated

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "agentdesk> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if err := shellCommand(ctx, c, reader, out, fields); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			reportError(err)
		}
		authenticated = noticeSessionEnd(authenticated, states)
	}
}

var errExit = errors.New("exit")

func shellCommand(ctx context.Context, c *console.Console, in *bufio.Reader, out io.Writer, fields []string) error {
	name, args := fields[0], fields[1:]

	view := func(route string, fn func() error) error {
		if d := c.Navigate(ctx, route); !d.Allow {
			return fmt.Errorf("%w: %s", errLoginRequired, d.Reason)
		}
		return fn()
	}

	switch name {
	case "exit", "quit":
		return errExit
	case "help", "?":
		fmt.Fprintln(out, shellHelp)
		return nil
	case "status":
		showStatus(c)
		return nil
	case "agents":
		return view("agents", func() error { return showAgents(ctx, c) })
	case "templates":
		return view("templates", func() error { return showTemplates(ctx, c) })
	case "questions":
		agentID := ""
		if len(args) > 0 {
			agentID = args[0]
		}
		return view("questions", func() error { return showQuestions(ctx, c, agentID) })
	case "whoami":
		return view("whoami", func() error { return showWhoami(ctx, c) })
	case "login":
		email := ""
		if len(args) > 0 {
			email = args[0]
		}
		creds, err := promptCredentials(in, out, email, "")
		if err != nil {
			return err
		}
		user, err := c.Session.Login(ctx, creds)
		if err != nil {
			return err
		}
		printer.Success("Logged in as %s", displayName(user))
		return nil
	case "logout":
		if err := c.Session.Logout(ctx); err != nil {
			return err
		}
		printer.Success("Logged out")
		return nil
	default:
		return fmt.Errorf("unknown command %q, try help", name)
	}
}

// noticeSessionEnd drains pending snapshots and warns when the session
// ended, such as after a failed silent refresh. It returns the latest
// authentication flag.
func noticeSessionEnd(was bool, states <-chan session.State) bool {
	for {
		select {
		case st, ok := <-states:
			if !ok {
				return was
			}
			if was && !st.IsAuthenticated {
				printer.Warning("Session ended.")
			}
			was = st.IsAuthenticated
		default:
			return was
		}
	}
}
