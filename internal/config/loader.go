package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidLLMProviders lists known backend names. Used by [Validate] to warn
// about unrecognised providers without rejecting them, so new any-llm
// backends work without a code change here.
var ValidLLMProviders = []string{
	"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq",
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	validateProviderName("llm.provider", cfg.LLM.Provider)
	for i, fb := range cfg.LLM.Fallbacks {
		if fb.Provider == "" {
			errs = append(errs, fmt.Errorf("llm.fallbacks[%d].provider is required", i))
			continue
		}
		validateProviderName(fmt.Sprintf("llm.fallbacks[%d].provider", i), fb.Provider)
	}

	if cfg.Chat.MaxTurns < 0 {
		errs = append(errs, fmt.Errorf("chat.max_turns %d must not be negative", cfg.Chat.MaxTurns))
	}

	if cfg.Database.PostgresDSN == "" {
		slog.Warn("database.postgres_dsn is empty; running on the in-memory demo store, all data is lost on shutdown")
	}

	return errors.Join(errs...)
}

// validateProviderName warns about unknown backend names without failing
// validation.
func validateProviderName(field, name string) {
	if name == "" {
		return
	}
	if !slices.Contains(ValidLLMProviders, name) {
		slog.Warn("unrecognised LLM provider name",
			"field", field,
			"name", name,
			"known", ValidLLMProviders)
	}
}
