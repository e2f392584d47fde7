// Package config handles configuration loading for agentdesk.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file (chosen by extension) with
// environment variable expansion. Every field has a default, so the console
// runs without any file at all.
//
// # Configuration File
//
// Resolution order (first hit wins):
//
//  1. Explicit path (the --config flag)
//  2. AGENTDESK_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/agentdesk/config.yaml, then config.toml
//  4. ~/.config/agentdesk/config.yaml, then config.toml
//  5. Built-in defaults
//
// AGENTDESK_API_URL overrides api.base_url after the file is read.
//
// # Environment Variable Expansion
//
//	api:
//	  base_url: "${AGENTDESK_BACKEND}/api"
//
// # Configuration Sections
//
//	api:
//	  base_url: "http://localhost:8000/api"
//	  timeout: "15s"
//
//	session:
//	  state_path: "~/.local/share/agentdesk/state.db"
//	  marker_cookie: "refresh_token"        # presence-only marker
//	  rotation_header: "x-new-access-token"
//	  persist_cookies: true
//
//	logging:
//	  level: "warn"   # debug, info, warn, error
//	  format: "text"  # text, json
//
//	output:
//	  colors: true
package config
