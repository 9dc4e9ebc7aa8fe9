// Package config provides the configuration schema and YAML loader for the
// CampusBuddy server.
package config

// LogLevel controls log verbosity for the CampusBuddy server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for CampusBuddy.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Database DatabaseConfig `yaml:"database"`
	Chat     ChatConfig     `yaml:"chat"`
	MCP      MCPConfig      `yaml:"mcp"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP server listens on (e.g. ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// LLMConfig selects the primary chat-completion backend and optional
// failover backends, tried in order when the primary fails.
type LLMConfig struct {
	ProviderEntry `yaml:",inline"`

	// Fallbacks are additional backends registered with the failover group.
	Fallbacks []ProviderEntry `yaml:"fallbacks"`
}

// ProviderEntry configures one LLM backend.
type ProviderEntry struct {
	// Provider selects the backend implementation (e.g. "openai", "anthropic",
	// "ollama"). The "openai" name uses the native client; every other name is
	// routed through the any-llm gateway.
	Provider string `yaml:"provider"`

	// APIKey is the authentication key for the provider's API, if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model (e.g. "gpt-4o-mini").
	Model string `yaml:"model"`
}

// DatabaseConfig holds persistence settings. With an empty DSN the server
// runs on the in-memory demo store.
type DatabaseConfig struct {
	// PostgresDSN is the PostgreSQL connection string.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// ChatConfig tunes the conversation loop.
type ChatConfig struct {
	// MaxTurns overrides the model round-trip ceiling per run. Zero keeps
	// the default.
	MaxTurns int `yaml:"max_turns"`
}

// MCPConfig controls the Model Context Protocol export of the tool catalog.
type MCPConfig struct {
	// Enabled mounts the MCP endpoint on the HTTP server.
	Enabled bool `yaml:"enabled"`
}
