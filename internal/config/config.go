// Package config loads and manages techtranslator configuration.
// Configuration source priority (highest to lowest):
// 1. Environment variables (TECHTRANSLATOR_API_URL, TECHTRANSLATOR_IDENTITY_MODE, etc.)
// 2. Config file path specified via --config flag
// 3. ~/.config/techtranslator/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// APIConfig holds settings for the hosted query API.
type APIConfig struct {
	// BaseURL is the root of the query API, without a trailing slash.
	BaseURL string `yaml:"base_url"`
}

// IdentityConfig holds settings for the identity provider.
type IdentityConfig struct {
	// Mode: "cognito" (default) | "mock"
	Mode string `yaml:"mode"`

	// Region is the AWS region hosting the user pool.
	Region string `yaml:"region"`

	// ClientID is the user pool app client id.
	ClientID string `yaml:"client_id"`
}

// StorageConfig holds settings for local persistence.
type StorageConfig struct {
	// Dir overrides where chat sessions and credentials are written.
	// Empty = the platform default under the user's home directory.
	Dir string `yaml:"dir"`
}

// Config is the complete configuration structure for techtranslator.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Identity IdentityConfig `yaml:"identity"`
	Storage  StorageConfig  `yaml:"storage"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
		},
		Identity: IdentityConfig{
			Mode:   "cognito",
			Region: "us-east-1",
		},
	}
}

// DefaultPath returns ~/.config/techtranslator/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "techtranslator", "config.yaml"), nil
}

// Load reads the config file and merges environment variable overrides.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		if p, err := DefaultPath(); err == nil {
			configPath = p
		}
	}

	// Missing file means defaults; a present but invalid file is an error.
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// Save persists the config to the default path, creating the directory
// as needed.
func Save(cfg *Config) error {
	cfgPath, err := DefaultPath()
	if err != nil {
		return fmt.Errorf("cannot determine home directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(cfgPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TECHTRANSLATOR_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("TECHTRANSLATOR_IDENTITY_MODE"); v != "" {
		cfg.Identity.Mode = v
	}
	if v := os.Getenv("TECHTRANSLATOR_REGION"); v != "" {
		cfg.Identity.Region = v
	}
	if v := os.Getenv("TECHTRANSLATOR_CLIENT_ID"); v != "" {
		cfg.Identity.ClientID = v
	}
	if v := os.Getenv("TECHTRANSLATOR_DATA_DIR"); v != "" {
		cfg.Storage.Dir = v
	}
}
