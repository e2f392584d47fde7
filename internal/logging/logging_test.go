// ABOUTME: Tests for logger construction
// ABOUTME: Validates level parsing plus the JSON and colorized text handlers

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/agentdesk/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	logger.With("component", "session").Info("logged in", "user", "u1")
	logger.Debug("hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "logged in", rec["msg"])
	assert.Equal(t, "session", rec["component"])
	assert.Equal(t, "u1", rec["user"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "warn", Format: "text"}, &buf)

	logger.Info("hidden")
	logger.With("component", "guard").WithGroup("route").Warn("redirecting", "name", "agents")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "redirecting")
	assert.Contains(t, out, "component=")
	assert.Contains(t, out, "guard")
	assert.Contains(t, out, "route.name=")
}
