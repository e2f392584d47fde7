// ABOUTME: Root command: global flags, configuration, logging and console helpers
// ABOUTME: Every protected command enters its view through the session guard

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/2389/agentdesk/internal/api"
	"github.com/2389/agentdesk/internal/config"
	"github.com/2389/agentdesk/internal/console"
	"github.com/2389/agentdesk/internal/logging"
	"github.com/2389/agentdesk/internal/output"
)

var (
	cfgFile string
	apiURL  string
	verbose bool
	noColor bool
	cfg     *config.Config
	printer *output.Printer
	version = "dev"
)

// errLoginRequired is returned when the guard redirects a view to login
var errLoginRequired = errors.New("login required")

var rootCmd = &cobra.Command{
	Use:   "agentdesk",
	Short: "Admin console for agents, templates and questions",
	Long: `agentdesk manages agents, their templates and question/answer pairs on
the agentdesk REST backend.

The session survives between runs: the access token and the refresh cookie
are kept in a local state database and renewed silently when they expire.

Example usage:
  agentdesk login                       # Start a session
  agentdesk agents list                 # List agents
  agentdesk questions export --agent ID # Export an agent's Q&A as markdown
  agentdesk shell                       # Interactive console`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/agentdesk/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "REST backend base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func initConfig(cmd *cobra.Command, args []string) error {
	c, err := config.LoadDefault(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if apiURL != "" {
		c.API.BaseURL = strings.TrimRight(apiURL, "/")
		if err := c.Validate(); err != nil {
			return err
		}
	}
	if verbose {
		c.Logging.Level = "debug"
	}

	slog.SetDefault(logging.New(c.Logging, os.Stderr))
	printer = output.NewPrinterWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr(),
		!noColor && output.ResolveColors(c.Output.ColorsEnabled()))
	cfg = c

	slog.Debug("configuration loaded", "path", c.Path, "base_url", c.API.BaseURL, "state", c.Session.StatePath)
	return nil
}

// openConsole wires the console and runs its one-shot initialization
func openConsole(ctx context.Context) (*console.Console, error) {
	c, err := console.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if _, err := c.Start(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// withView opens the console, enters route through the guard and runs fn
func withView(ctx context.Context, route string, fn func(c *console.Console) error) error {
	c, err := openConsole(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if d := c.Navigate(ctx, route); !d.Allow {
		return fmt.Errorf("%w: %s", errLoginRequired, d.Reason)
	}
	return fn(c)
}

// promptCredentials asks for whatever the flags left empty. The password is
// read without echo when stdin is a terminal.
func promptCredentials(in *bufio.Reader, out io.Writer, email, password string) (api.Credentials, error) {
	var err error
	if email == "" {
		fmt.Fprint(out, "Email: ")
		if email, err = readLine(in); err != nil {
			return api.Credentials{}, err
		}
	}
	if password == "" {
		password = os.Getenv("AGENTDESK_PASSWORD")
	}
	if password == "" {
		fmt.Fprint(out, "Password: ")
		if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
			raw, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			if err != nil {
				return api.Credentials{}, fmt.Errorf("reading password: %w", err)
			}
			password = string(raw)
		} else if password, err = readLine(in); err != nil {
			return api.Credentials{}, err
		}
	}
	return api.Credentials{Email: email, Password: password}, nil
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
