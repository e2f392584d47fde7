// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults, and validation

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
api:
  base_url: "https://admin.example.com/api/"
  timeout: "30s"

session:
  state_path: "/tmp/agentdesk/state.db"
  marker_cookie: "rt_present"
  rotation_header: "x-rotated"
  persist_cookies: false

logging:
  level: "debug"
  format: "json"

output:
  colors: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://admin.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "/tmp/agentdesk/state.db", cfg.Session.StatePath)
	assert.Equal(t, "rt_present", cfg.Session.MarkerCookie)
	assert.Equal(t, "x-rotated", cfg.Session.RotationHeader)
	assert.False(t, cfg.Session.CookiesPersisted())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Output.ColorsEnabled())
	assert.Equal(t, path, cfg.Path)
}

func TestLoad_ValidTOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[api]
base_url = "http://localhost:9000/api"
timeout = "5s"

[session]
state_path = "/tmp/state.db"

[logging]
level = "info"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, DefaultMarkerCookie, cfg.Session.MarkerCookie)
	assert.Equal(t, DefaultRotationHeader, cfg.Session.RotationHeader)
	assert.True(t, cfg.Session.CookiesPersisted())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("AGENTDESK_TEST_BACKEND", "https://backend.internal")

	path := writeConfig(t, "config.yaml", `
api:
  base_url: "${AGENTDESK_TEST_BACKEND}/api"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://backend.internal/api", cfg.API.BaseURL)
}

func TestLoad_APIURLOverride(t *testing.T) {
	t.Setenv("AGENTDESK_API_URL", "http://override:8000/api/")

	path := writeConfig(t, "config.yaml", `
api:
  base_url: "http://file:8000/api"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://override:8000/api", cfg.API.BaseURL)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad duration", "config.yaml", "api:\n  timeout: \"soon\"\n"},
		{"bad scheme", "config.yaml", "api:\n  base_url: \"ftp://example.com\"\n"},
		{"bad level", "config.yaml", "logging:\n  level: \"loud\"\n"},
		{"bad format", "config.yaml", "logging:\n  format: \"xml\"\n"},
		{"bad yaml", "config.yaml", "api: [\n"},
		{"unknown extension", "config.ini", "[api]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoadDefault_NoFile(t *testing.T) {
	t.Setenv("AGENTDESK_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", "/data")

	cfg, err := LoadDefault("")
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.API.Timeout)
	assert.Equal(t, filepath.Join("/data", "agentdesk", "state.db"), cfg.Session.StatePath)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Empty(t, cfg.Path)
}

func TestResolve_Priority(t *testing.T) {
	xdg := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "agentdesk"), 0755))
	xdgPath := filepath.Join(xdg, "agentdesk", "config.toml")
	require.NoError(t, os.WriteFile(xdgPath, []byte(""), 0644))

	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("AGENTDESK_CONFIG", "")
	assert.Equal(t, xdgPath, Resolve(""))

	t.Setenv("AGENTDESK_CONFIG", "/etc/agentdesk.yaml")
	assert.Equal(t, "/etc/agentdesk.yaml", Resolve(""))

	assert.Equal(t, "/explicit.yaml", Resolve("/explicit.yaml"))
}
