// Package config loads the .cir/config.yaml workspace configuration via
// viper/mapstructure, the same settings layer the base tool used for its
// own .ralph/config.yaml (SPEC_FULL's ambient-stack section).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/synapse-cir/cirrepair/internal/workspace"
)

// Config is the full CIR configuration: workspace confinement, the
// test-runner command, LLM transport settings, and the HTTP control
// plane's concurrency bound (SPEC_FULL §6).
type Config struct {
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Executor  ExecutorConfig  `mapstructure:"executor"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Server    ServerConfig    `mapstructure:"server"`
}

type WorkspaceConfig struct {
	Path string `mapstructure:"path"`
}

type ExecutorConfig struct {
	Interpreter string `mapstructure:"interpreter"`
}

type LLMConfig struct {
	BaseURL string        `mapstructure:"baseUrl"`
	Model   string        `mapstructure:"model"`
	APIKey  string        `mapstructure:"apiKey"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Load reads .cir/config.yaml from workspaceDir, falling back to defaults
// for anything missing or if the file doesn't exist at all.
func Load(workspaceDir string) (*Config, error) {
	configPath := workspace.ConfigPath(workspaceDir)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// DefaultConfig returns a config usable without a .cir/config.yaml file,
// except for an LLM API key the environment must still supply.
func DefaultConfig() *Config {
	return &Config{
		Workspace: WorkspaceConfig{Path: "."},
		Executor:  ExecutorConfig{Interpreter: "pytest"},
		LLM: LLMConfig{
			Model:   "claude-sonnet-4-5",
			Timeout: 60 * time.Second,
		},
		Server: ServerConfig{Concurrency: 4},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Workspace.Path == "" {
		cfg.Workspace.Path = defaults.Workspace.Path
	}
	if cfg.Executor.Interpreter == "" {
		cfg.Executor.Interpreter = defaults.Executor.Interpreter
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaults.LLM.Model
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = defaults.LLM.Timeout
	}
	if cfg.Server.Concurrency == 0 {
		cfg.Server.Concurrency = defaults.Server.Concurrency
	}
}
