// Package config implements the layered configuration loader for the
// pantry daemon, per spec §6's "Configuration inputs": language-model
// credentials and model name, tool-transport locations, auth-service
// URL/key, confirmation timeout, session timeout, max concurrent tasks.
//
// Layering follows the teacher's core/project/advanced pattern: a base
// set of defaults, overlaid by an optional YAML file, overlaid by
// environment variables, via spf13/viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// LLM holds the language-model backend's connection details.
type LLM struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// ToolTransport is one named backend transport's base location.
type ToolTransport struct {
	Name    string `mapstructure:"name"`
	BaseURL string `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Auth is the authentication-service boundary, out of the core's scope
// but configured here so the HTTP layer can reach it.
type Auth struct {
	ServiceURL string `mapstructure:"service_url"`
	ServiceKey string `mapstructure:"service_key"`
}

// Config is the fully merged, process-wide configuration.
type Config struct {
	LLM LLM `mapstructure:"llm"`

	ToolTransports []ToolTransport `mapstructure:"tool_transports"`
	DefaultTool    string          `mapstructure:"default_tool_transport"`
	ProcessCredential string       `mapstructure:"process_credential"`

	Auth Auth `mapstructure:"auth"`

	ConfirmationTimeout time.Duration `mapstructure:"confirmation_timeout"`
	SessionTimeout      time.Duration `mapstructure:"session_timeout"`
	MaxConcurrentTasks  int           `mapstructure:"max_concurrent_tasks"`

	PromptTokenBudget int    `mapstructure:"prompt_token_budget"`
	TiktokenEncoding  string `mapstructure:"tiktoken_encoding"`

	HTTPAddr string `mapstructure:"http_addr"`

	MetricsAddr string `mapstructure:"metrics_addr"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// Load builds a viper instance seeded with defaults, optionally
// overlaid by a YAML file at path (skipped silently if absent), then
// overlaid by PANTRY_-prefixed environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetEnvPrefix("pantry")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")

	v.SetDefault("default_tool_transport", "default")

	v.SetDefault("confirmation_timeout", 5*time.Minute)
	v.SetDefault("session_timeout", 30*time.Minute)
	v.SetDefault("max_concurrent_tasks", 4)

	v.SetDefault("prompt_token_budget", 6000)
	v.SetDefault("tiktoken_encoding", "cl100k_base")

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("metrics_addr", ":9090")
}
