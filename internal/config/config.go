// Package config loads and validates the engine's runtime configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cerina/foundry-engine/internal/domain"
)

// ModelConfig selects and configures the generation client used by agents.
type ModelConfig struct {
	// Provider is "openai" for any OpenAI-compatible endpoint, or "canned"
	// for the deterministic offline client.
	Provider string `json:"provider"`
	Name     string `json:"name"`
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url"`
}

// Config holds the engine's runtime configuration.
type Config struct {
	DBPath            string      `json:"db_path"`
	ListenAddr        string      `json:"listen_addr"`
	LogLevel          string      `json:"log_level"`
	MaxIterations     int         `json:"max_iterations"`
	MaxSteps          int         `json:"max_steps"`
	StepTimeoutSec    int         `json:"step_timeout_sec"`
	RetryMaxAttempts  int         `json:"retry_max_attempts"`
	RetryInitialMS    int         `json:"retry_initial_ms"`
	MinEmpathyScore   int         `json:"min_empathy_score"`
	MinStructureScore int         `json:"min_structure_score"`
	AlertWebhookURL   string      `json:"alert_webhook_url"`
	Model             ModelConfig `json:"model"`
}

// Load reads a JSON config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config JSON: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":9800"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = 3
	}
	if c.MaxSteps == 0 {
		c.MaxSteps = 24
	}
	if c.StepTimeoutSec == 0 {
		c.StepTimeoutSec = 60
	}
	if c.RetryMaxAttempts == 0 {
		c.RetryMaxAttempts = 3
	}
	if c.RetryInitialMS == 0 {
		c.RetryInitialMS = 500
	}
	if c.MinEmpathyScore == 0 {
		c.MinEmpathyScore = 7
	}
	if c.MinStructureScore == 0 {
		c.MinStructureScore = 7
	}
	if c.Model.Provider == "" {
		c.Model.Provider = "canned"
	}
}

func (c *Config) validate() error {
	var problems []string

	if c.DBPath == "" {
		problems = append(problems, "db_path is required")
	}
	if c.MaxIterations < 1 {
		problems = append(problems, "max_iterations must be at least 1")
	}
	if c.MaxSteps < 1 {
		problems = append(problems, "max_steps must be at least 1")
	}
	if c.MinEmpathyScore < 1 || c.MinEmpathyScore > 10 {
		problems = append(problems, "min_empathy_score must be in [1, 10]")
	}
	if c.MinStructureScore < 1 || c.MinStructureScore > 10 {
		problems = append(problems, "min_structure_score must be in [1, 10]")
	}
	switch c.Model.Provider {
	case "canned":
	case "openai":
		if c.Model.Name == "" {
			problems = append(problems, "model.name is required for the openai provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("model.provider %q is not supported", c.Model.Provider))
	}

	if len(problems) > 0 {
		return &domain.EngineError{
			Code:    domain.ErrConfigInvalid.Code,
			Message: fmt.Sprintf("%s: %v", domain.ErrConfigInvalid.Message, problems),
		}
	}
	return nil
}
