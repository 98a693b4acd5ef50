// Package config provides configuration loading and validation for the
// blueprint engine.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/blueprint-engine/internal/credit"
)

// Config represents the service configuration that can be loaded from a
// JSON file. Missing values use defaults or must be provided via flags/env.
type Config struct {
	Port        int    `json:"port,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key

	// Credit pricing
	Costs         credit.Costs `json:"costs,omitempty"`
	SignupCredits float64      `json:"signup_credits,omitempty"` // starting balance for new accounts
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:          8080,
		Costs:         credit.DefaultCosts(),
		SignupCredits: 25,
	}
}

// Load reads configuration from a JSON file and fills unset fields from the
// defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var loaded fileConfig
	if err := json.Unmarshal(data, &loaded); err != nil {
		return cfg, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	cfg = cfg.merge(loaded)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// fileConfig is the JSON file shape. Pointer fields distinguish an absent
// key from an explicit zero, so a file can set a free operation or a zero
// signup balance.
type fileConfig struct {
	Port          *int       `json:"port"`
	DatabaseURL   *string    `json:"database_url"`
	APIKey        *string    `json:"api_key"`
	Costs         *fileCosts `json:"costs"`
	SignupCredits *float64   `json:"signup_credits"`
}

type fileCosts struct {
	Suite    *float64 `json:"suite"`
	Sequence *float64 `json:"sequence"`
	Message  *float64 `json:"message"`
}

// merge overlays the file's explicitly set fields onto c.
func (c Config) merge(f fileConfig) Config {
	result := c
	if f.Port != nil {
		result.Port = *f.Port
	}
	if f.DatabaseURL != nil {
		result.DatabaseURL = *f.DatabaseURL
	}
	if f.APIKey != nil {
		result.APIKey = *f.APIKey
	}
	if f.Costs != nil {
		if f.Costs.Suite != nil {
			result.Costs.Suite = *f.Costs.Suite
		}
		if f.Costs.Sequence != nil {
			result.Costs.Sequence = *f.Costs.Sequence
		}
		if f.Costs.Message != nil {
			result.Costs.Message = *f.Costs.Message
		}
	}
	if f.SignupCredits != nil {
		result.SignupCredits = *f.SignupCredits
	}
	return result
}

// Validate checks that the configuration has valid values.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range: %d", c.Port)
	}
	if c.Costs.Suite < 0 || c.Costs.Sequence < 0 || c.Costs.Message < 0 {
		return fmt.Errorf("config error: costs must be non-negative")
	}
	if c.SignupCredits < 0 {
		return fmt.Errorf("config error: 'signup_credits' must be non-negative")
	}
	return nil
}
