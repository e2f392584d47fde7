// ABOUTME: Standalone mock of the agentdesk REST backend for local development and E2E runs
// ABOUTME: Usage: agentdesk-mock [-addr localhost:8000] [-seed ada@example.com:secret] [-rotate]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/2389/agentdesk/internal/config"
	"github.com/2389/agentdesk/internal/logging"
	"github.com/2389/agentdesk/internal/mockapi"
)

func main() {
	addr := flag.String("addr", "localhost:8000", "HTTP listen address")
	seed := flag.String("seed", "admin@example.com:admin", "user to create, as email:password (empty for none)")
	secret := flag.String("secret", "", "token signing secret (a fixed development secret when empty)")
	accessTTL := flag.Duration("access-ttl", mockapi.DefaultAccessTTL, "access token lifetime")
	rotate := flag.Bool("rotate", false, "rotate the access token on every authenticated response")
	nested := flag.Bool("nested-login", false, "answer login with {user, tokens: {access}}")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	logger := logging.New(config.LoggingConfig{Level: *level, Format: "text"}, os.Stderr)
	slog.SetDefault(logger)

	if err := run(*addr, *seed, *secret, *accessTTL, *rotate, *nested, logger); err != nil {
		logger.Error("mock backend failed", "error", err)
		os.Exit(1)
	}
}

func run(addr, seed, secret string, accessTTL time.Duration, rotate, nested bool, logger *slog.Logger) error {
	opts := mockapi.Options{
		BasePath:     "/api",
		AccessTTL:    accessTTL,
		RotateTokens: rotate,
		NestedLogin:  nested,
		Logger:       logger,
	}
	if secret != "" {
		opts.Secret = []byte(secret)
	}
	srv := mockapi.New(opts)

	if seed != "" {
		email, password, ok := strings.Cut(seed, ":")
		if !ok || email == "" || password == "" {
			return fmt.Errorf("invalid -seed %q, want email:password", seed)
		}
		if _, err := srv.AddUser(email, password, ""); err != nil {
			return fmt.Errorf("seeding user: %w", err)
		}
		logger.Info("seeded user", "email", email)
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mock backend listening", "addr", addr, "base", "http://"+addr+"/api")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}
