// Package config handles search agent configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "SEARCHAGENT"

// Tool modes accepted by agent.tool_mode.
const (
	ModeNever  = "never"
	ModeAuto   = "auto"
	ModeAlways = "always"
)

// Config holds all search agent configuration.
type Config struct {
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Agent   AgentConfig   `yaml:"agent" mapstructure:"agent"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// LLMConfig describes the chat completions endpoint.
type LLMConfig struct {
	APIKey         string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	Model          string  `yaml:"model" mapstructure:"model"`
	Temperature    float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens      int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// SearchConfig configures the web search tool.
type SearchConfig struct {
	APIKey         string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	MaxResults     int    `yaml:"max_results" mapstructure:"max_results"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	// FetchEnabled registers the page fetch tool next to search.
	FetchEnabled bool `yaml:"fetch_enabled" mapstructure:"fetch_enabled"`
}

// AgentConfig holds session policy defaults.
type AgentConfig struct {
	ToolMode         string `yaml:"tool_mode" mapstructure:"tool_mode"`
	MaxRounds        int    `yaml:"max_rounds" mapstructure:"max_rounds"`
	MaxToolCalls     int    `yaml:"max_tool_calls" mapstructure:"max_tool_calls"`
	Stream           bool   `yaml:"stream" mapstructure:"stream"`
	SystemPromptPath string `yaml:"system_prompt_path" mapstructure:"system_prompt_path"`
}

type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	// File receives logs instead of stderr. The interactive UI discards logs
	// when it is empty.
	File string `yaml:"file" mapstructure:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:        "https://api.deepseek.com/v1",
			Model:          "deepseek-chat",
			Temperature:    0.7,
			MaxTokens:      4096,
			TimeoutSeconds: 120,
		},
		Search: SearchConfig{
			BaseURL:        "https://api.tavily.com",
			MaxResults:     3,
			TimeoutSeconds: 30,
			FetchEnabled:   true,
		},
		Agent: AgentConfig{
			ToolMode:     ModeAuto,
			MaxRounds:    5,
			MaxToolCalls: 15,
			Stream:       true,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// envAliases are the well-known variables honoured besides the prefixed ones.
var envAliases = map[string]string{
	"llm.api_key":    "DEEPSEEK_API_KEY",
	"llm.base_url":   "DEEPSEEK_BASE_URL",
	"llm.model":      "DEEPSEEK_MODEL",
	"search.api_key": "TAVILY_API_KEY",
}

// Load reads the file at path, applies environment overrides and validates
// the result. An empty path loads defaults plus environment.
func Load(path string) (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPaths loads the first existing file among paths. When none exists
// defaults plus environment are returned.
func LoadFromPaths(paths ...string) (*Config, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Load("")
}

// DefaultPaths lists the files searched when no --config is given.
func DefaultPaths() []string {
	paths := []string{"config.local.yaml", "config.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".search-agent", "config.yaml"))
	}
	return paths
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	def := DefaultConfig()
	v.SetDefault("llm.api_key", def.LLM.APIKey)
	v.SetDefault("llm.base_url", def.LLM.BaseURL)
	v.SetDefault("llm.model", def.LLM.Model)
	v.SetDefault("llm.temperature", def.LLM.Temperature)
	v.SetDefault("llm.max_tokens", def.LLM.MaxTokens)
	v.SetDefault("llm.timeout_seconds", def.LLM.TimeoutSeconds)
	v.SetDefault("search.api_key", def.Search.APIKey)
	v.SetDefault("search.base_url", def.Search.BaseURL)
	v.SetDefault("search.max_results", def.Search.MaxResults)
	v.SetDefault("search.timeout_seconds", def.Search.TimeoutSeconds)
	v.SetDefault("search.fetch_enabled", def.Search.FetchEnabled)
	v.SetDefault("agent.tool_mode", def.Agent.ToolMode)
	v.SetDefault("agent.max_rounds", def.Agent.MaxRounds)
	v.SetDefault("agent.max_tool_calls", def.Agent.MaxToolCalls)
	v.SetDefault("agent.stream", def.Agent.Stream)
	v.SetDefault("agent.system_prompt_path", def.Agent.SystemPromptPath)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.file", def.Logging.File)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnvAliases(v, envAliases); err != nil {
		return nil, err
	}
	return v, nil
}

// bindEnvAliases binds each key to its prefixed variable and then its alias.
// Prefixed variables win over the aliases.
func bindEnvAliases(v *viper.Viper, aliases map[string]string) error {
	for key, alias := range aliases {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, alias); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}

// Validate checks that values are usable.
func (c *Config) Validate() error {
	var errs []error

	if c.LLM.BaseURL == "" {
		errs = append(errs, errors.New("llm.base_url is required"))
	}
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model is required"))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature must be between 0 and 2, got %v", c.LLM.Temperature))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("llm.max_tokens must be positive, got %d", c.LLM.MaxTokens))
	}
	if c.Search.MaxResults < 1 || c.Search.MaxResults > 10 {
		errs = append(errs, fmt.Errorf("search.max_results must be between 1 and 10, got %d", c.Search.MaxResults))
	}
	if err := ValidateMode(c.Agent.ToolMode); err != nil {
		errs = append(errs, err)
	}
	if c.Agent.MaxRounds < 1 {
		errs = append(errs, fmt.Errorf("agent.max_rounds must be at least 1, got %d", c.Agent.MaxRounds))
	}
	if c.Agent.MaxToolCalls < 0 {
		errs = append(errs, fmt.Errorf("agent.max_tool_calls must not be negative, got %d", c.Agent.MaxToolCalls))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ValidateMode checks a tool mode name.
func ValidateMode(mode string) error {
	switch mode {
	case ModeNever, ModeAuto, ModeAlways:
		return nil
	}
	return fmt.Errorf("agent.tool_mode must be one of never, auto, always, got %q", mode)
}

// LLMTimeout returns the model request timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// SearchTimeout returns the search request timeout.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Search.TimeoutSeconds) * time.Second
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	out.LLM.APIKey = redact(c.LLM.APIKey)
	out.Search.APIKey = redact(c.Search.APIKey)
	return &out
}

func redact(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
