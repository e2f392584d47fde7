// ABOUTME: Configuration loading and parsing for the agentdesk console
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Defaults applied when a field is left empty.
const (
	DefaultBaseURL        = "http://localhost:8000/api"
	DefaultTimeout        = 15 * time.Second
	DefaultMarkerCookie   = "refresh_token"
	DefaultRotationHeader = "x-new-access-token"
)

// ErrUnsupportedFormat is returned for config files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Config represents the complete agentdesk configuration
type Config struct {
	API     APIConfig     `yaml:"api" toml:"api"`
	Session SessionConfig `yaml:"session" toml:"session"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Output  OutputConfig  `yaml:"output" toml:"output"`

	// Path is the file the config was read from, empty for defaults.
	Path string `yaml:"-" toml:"-"`
}

// APIConfig holds the REST backend location
type APIConfig struct {
	BaseURL string        `yaml:"base_url" toml:"base_url"`
	Timeout time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	TimeoutRaw string `yaml:"timeout" toml:"timeout"`
}

// SessionConfig holds session persistence and cookie contract settings
type SessionConfig struct {
	StatePath      string `yaml:"state_path" toml:"state_path"`
	MarkerCookie   string `yaml:"marker_cookie" toml:"marker_cookie"`
	RotationHeader string `yaml:"rotation_header" toml:"rotation_header"`

	// PersistCookies keeps the cookie jar across runs. Pointer so an absent
	// key can default to true.
	PersistCookies *bool `yaml:"persist_cookies" toml:"persist_cookies"`
}

// CookiesPersisted reports whether the cookie jar is written to the state database.
func (s SessionConfig) CookiesPersisted() bool {
	return s.PersistCookies == nil || *s.PersistCookies
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// OutputConfig holds terminal output preferences
type OutputConfig struct {
	Colors *bool `yaml:"colors" toml:"colors"`
}

// ColorsEnabled reports whether colored output is wanted.
func (o OutputConfig) ColorsEnabled() bool {
	return o.Colors == nil || *o.Colors
}

// Default returns a Config populated with defaults only.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Resolve returns the path of the config file to use, or "" when none exists.
// Priority: explicit > AGENTDESK_CONFIG > XDG_CONFIG_HOME/agentdesk > ~/.config/agentdesk
func Resolve(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if envPath := os.Getenv("AGENTDESK_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
		candidate := filepath.Join(configDir, "agentdesk", name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// LoadDefault resolves the config path and loads it, falling back to defaults
// when no file is found.
func LoadDefault(explicit string) (*Config, error) {
	path := Resolve(explicit)
	if path == "" {
		cfg := Default()
		applyEnvOverrides(cfg)
		return cfg, cfg.Validate()
	}
	return Load(path)
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	cfg.Path = path

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must use http or https scheme")
	}
	if u.Host == "" {
		return fmt.Errorf("api.base_url must include a host")
	}

	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}

	if c.Session.MarkerCookie == "" {
		return fmt.Errorf("session.marker_cookie is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.API.TimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.API.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing api.timeout %q: %w", cfg.API.TimeoutRaw, err)
		}
		cfg.API.Timeout = d
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = DefaultTimeout
	}
	if cfg.Session.StatePath == "" {
		cfg.Session.StatePath = defaultStatePath()
	}
	cfg.Session.StatePath = expandHome(cfg.Session.StatePath)
	if cfg.Session.MarkerCookie == "" {
		cfg.Session.MarkerCookie = DefaultMarkerCookie
	}
	if cfg.Session.RotationHeader == "" {
		cfg.Session.RotationHeader = DefaultRotationHeader
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

func applyEnvOverrides(cfg *Config) {
	if apiURL := os.Getenv("AGENTDESK_API_URL"); apiURL != "" {
		cfg.API.BaseURL = strings.TrimRight(apiURL, "/")
	}
}

// defaultStatePath returns XDG_DATA_HOME/agentdesk/state.db or ~/.local/share/agentdesk/state.db
func defaultStatePath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "agentdesk-state.db"
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "agentdesk", "state.db")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
