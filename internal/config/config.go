// Package config loads layered settings for the lotus CLI: built-in
// defaults, an optional YAML or TOML file, then LOTUS_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/petasbytes/lotus/internal/provider"
)

const EnvPrefix = "LOTUS"

type Config struct {
	Provider  ProviderConfig  `mapstructure:"provider"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Runner    RunnerConfig    `mapstructure:"runner"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ProviderConfig selects the completion backend.
type ProviderConfig struct {
	Backend   string `mapstructure:"backend"`
	Model     string `mapstructure:"model"`
	BaseURL   string `mapstructure:"base_url"`
	Think     bool   `mapstructure:"think"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

// ToolsConfig selects the tool execution service. An empty MCPEndpoint
// serves the built-in tools rooted at ReadRoot.
type ToolsConfig struct {
	MCPEndpoint string `mapstructure:"mcp_endpoint"`
	ReadRoot    string `mapstructure:"read_root"`
}

type RunnerConfig struct {
	MaxTurns    int `mapstructure:"max_turns"`
	TokenBudget int `mapstructure:"token_budget"`
}

type TelemetryConfig struct {
	Observe bool   `mapstructure:"observe"`
	Dir     string `mapstructure:"dir"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	BackendOllama    = "ollama"
	BackendAnthropic = "anthropic"

	DefaultOllamaModel = "qwen3:4b"
)

// applyBackendDefaults fills the model and base URL left empty with the
// selected backend's defaults.
func (p *ProviderConfig) applyBackendDefaults() {
	switch p.Backend {
	case BackendOllama:
		if p.Model == "" {
			p.Model = DefaultOllamaModel
		}
		if p.BaseURL == "" {
			p.BaseURL = provider.DefaultOllamaURL
		}
	case BackendAnthropic:
		if p.Model == "" {
			p.Model = string(provider.DefaultAnthropicModel)
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.backend", BackendOllama)
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.think", false)
	v.SetDefault("provider.max_tokens", 1024)

	v.SetDefault("tools.mcp_endpoint", "")
	v.SetDefault("tools.read_root", ".")

	v.SetDefault("runner.max_turns", 8)
	v.SetDefault("runner.token_budget", 0)

	v.SetDefault("telemetry.observe", false)
	v.SetDefault("telemetry.dir", ".agent")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads configuration. path may be empty, in which case only defaults
// and the environment apply. A named file that cannot be read is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Provider.applyBackendDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch c.Provider.Backend {
	case BackendOllama, BackendAnthropic:
	default:
		return fmt.Errorf("provider.backend: unknown backend %q", c.Provider.Backend)
	}
	if c.Provider.Model == "" {
		return errors.New("provider.model: must be set")
	}
	if c.Runner.MaxTurns <= 0 {
		return fmt.Errorf("runner.max_turns: must be positive, got %d", c.Runner.MaxTurns)
	}
	if c.Runner.TokenBudget < 0 {
		return fmt.Errorf("runner.token_budget: must not be negative, got %d", c.Runner.TokenBudget)
	}
	if c.Provider.MaxTokens <= 0 {
		return fmt.Errorf("provider.max_tokens: must be positive, got %d", c.Provider.MaxTokens)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	return nil
}
