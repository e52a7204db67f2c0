// Package config loads application configuration for the Beta assistant
// core. Configuration comes from ~/.beta/config.yaml and can be
// overridden by BETA_* environment variables.
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

	"github.com/cruxlog/beta/internal/llm"
)

// Config holds all application configuration.
type Config struct {
	LLM          LLMConfig          `mapstructure:"llm" yaml:"llm"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator" yaml:"orchestrator"`
	Evaluator    EvaluatorConfig    `mapstructure:"evaluator" yaml:"evaluator"`
	Storage      StorageConfig      `mapstructure:"storage" yaml:"storage"`
	Logging      LoggingConfig      `mapstructure:"logging" yaml:"logging"`
}

// LLMConfig configures the two completion backends.
type LLMConfig struct {
	Conversational BackendConfig `mapstructure:"conversational" yaml:"conversational"`
	Reasoning      BackendConfig `mapstructure:"reasoning" yaml:"reasoning"`
}

// BackendConfig configures one completion backend.
type BackendConfig struct {
	// Endpoint is the API base URL.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	// APIKey is the authentication key for the backend.
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	// Model is the model to request.
	Model string `mapstructure:"model" yaml:"model,omitempty"`
	// TimeoutSec bounds a single API attempt.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec,omitempty"`
	// MaxRetries is the number of attempts per call.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries,omitempty"`
	// MaxTokens default for responses.
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens,omitempty"`
	// Temperature default.
	Temperature float64 `mapstructure:"temperature" yaml:"temperature,omitempty"`
}

// OrchestratorConfig holds the stage time budgets.
type OrchestratorConfig struct {
	// InitialTimeoutSec bounds the conversational call and the evaluation.
	InitialTimeoutSec int `mapstructure:"initial_timeout_sec" yaml:"initial_timeout_sec"`
	// ReasoningTimeoutSec bounds the reasoning stage.
	ReasoningTimeoutSec int `mapstructure:"reasoning_timeout_sec" yaml:"reasoning_timeout_sec"`
	// EnhancementTimeoutSec bounds the enhancement stage.
	EnhancementTimeoutSec int `mapstructure:"enhancement_timeout_sec" yaml:"enhancement_timeout_sec"`
}

// EvaluatorConfig controls the hybrid evaluation.
type EvaluatorConfig struct {
	// Hybrid enables the model-based pass when the heuristic pass is
	// inconclusive.
	Hybrid bool `mapstructure:"hybrid" yaml:"hybrid"`
}

// StorageConfig locates the logbook database.
type StorageConfig struct {
	// DataDir is the directory holding logbook.db.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
}

// LoggingConfig controls application logging.
type LoggingConfig struct {
	// Level is the log level ("debug", "info", "warn", "error").
	Level string `mapstructure:"level" yaml:"level"`
	// Pretty switches from JSON to console output.
	Pretty bool `mapstructure:"pretty" yaml:"pretty"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		LLM: LLMConfig{
			Conversational: BackendConfig{
				Endpoint:    "https://api.openai.com/v1",
				Model:       "gpt-4o-mini",
				TimeoutSec:  30,
				MaxRetries:  2,
				MaxTokens:   1024,
				Temperature: 0.7,
			},
			Reasoning: BackendConfig{
				Endpoint:    "https://api.deepseek.com/v1",
				Model:       "deepseek-reasoner",
				TimeoutSec:  45,
				MaxRetries:  2,
				MaxTokens:   4096,
				Temperature: 0.3,
			},
		},
		Orchestrator: OrchestratorConfig{
			InitialTimeoutSec:     30,
			ReasoningTimeoutSec:   45,
			EnhancementTimeoutSec: 20,
		},
		Evaluator: EvaluatorConfig{Hybrid: true},
		Storage:   StorageConfig{DataDir: filepath.Join(home, ".beta")},
		Logging:   LoggingConfig{Level: "info", Pretty: false},
	}
}

// Load reads configuration from the given path (or ~/.beta/config.yaml
// when empty), applying defaults and BETA_* environment overrides. A
// missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".beta"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("BETA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("llm.conversational.endpoint", defaults.LLM.Conversational.Endpoint)
	v.SetDefault("llm.conversational.model", defaults.LLM.Conversational.Model)
	v.SetDefault("llm.conversational.timeout_sec", defaults.LLM.Conversational.TimeoutSec)
	v.SetDefault("llm.conversational.max_retries", defaults.LLM.Conversational.MaxRetries)
	v.SetDefault("llm.conversational.max_tokens", defaults.LLM.Conversational.MaxTokens)
	v.SetDefault("llm.conversational.temperature", defaults.LLM.Conversational.Temperature)
	v.SetDefault("llm.reasoning.endpoint", defaults.LLM.Reasoning.Endpoint)
	v.SetDefault("llm.reasoning.model", defaults.LLM.Reasoning.Model)
	v.SetDefault("llm.reasoning.timeout_sec", defaults.LLM.Reasoning.TimeoutSec)
	v.SetDefault("llm.reasoning.max_retries", defaults.LLM.Reasoning.MaxRetries)
	v.SetDefault("llm.reasoning.max_tokens", defaults.LLM.Reasoning.MaxTokens)
	v.SetDefault("llm.reasoning.temperature", defaults.LLM.Reasoning.Temperature)
	v.SetDefault("orchestrator.initial_timeout_sec", defaults.Orchestrator.InitialTimeoutSec)
	v.SetDefault("orchestrator.reasoning_timeout_sec", defaults.Orchestrator.ReasoningTimeoutSec)
	v.SetDefault("orchestrator.enhancement_timeout_sec", defaults.Orchestrator.EnhancementTimeoutSec)
	v.SetDefault("evaluator.hybrid", defaults.Evaluator.Hybrid)
	v.SetDefault("storage.data_dir", defaults.Storage.DataDir)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.pretty", defaults.Logging.Pretty)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects budgets that would make the pipeline meaningless.
func (c *Config) Validate() error {
	if c.Orchestrator.InitialTimeoutSec <= 0 {
		return fmt.Errorf("orchestrator.initial_timeout_sec must be positive")
	}
	if c.Orchestrator.ReasoningTimeoutSec <= 0 {
		return fmt.Errorf("orchestrator.reasoning_timeout_sec must be positive")
	}
	if c.Orchestrator.EnhancementTimeoutSec <= 0 {
		return fmt.Errorf("orchestrator.enhancement_timeout_sec must be positive")
	}
	if c.LLM.Conversational.MaxRetries < 0 || c.LLM.Reasoning.MaxRetries < 0 {
		return fmt.Errorf("llm max_retries must not be negative")
	}
	return nil
}

// Save writes the configuration to path as YAML, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ProviderConfig converts a backend config into the llm package's shape.
func (b BackendConfig) ProviderConfig(name string) *llm.ProviderConfig {
	return &llm.ProviderConfig{
		Name:        name,
		Endpoint:    b.Endpoint,
		APIKey:      b.APIKey,
		Model:       b.Model,
		MaxTokens:   b.MaxTokens,
		Temperature: b.Temperature,
		Timeout:     time.Duration(b.TimeoutSec) * time.Second,
		MaxRetries:  b.MaxRetries,
	}
}
