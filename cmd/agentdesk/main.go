// ABOUTME: Entry point for the agentdesk console
// ABOUTME: Runs the cobra command tree and reports errors with a login hint

package main

import (
	"errors"
	"os"

	"github.com/2389/agentdesk/internal/auth"
	"github.com/2389/agentdesk/internal/output"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func reportError(err error) {
	p := printer
	if p == nil {
		p = output.NewPrinter(output.ResolveColors(true))
	}
	p.Error("%v", err)
	if errors.Is(err, auth.ErrSessionExpired) || errors.Is(err, errLoginRequired) {
		p.Info("Run `agentdesk login` to start a new session.")
	}
}
