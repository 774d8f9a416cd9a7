package server

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the server's environment-driven configuration.
type Config struct {
	Addr string `env:"TT_ADDR" envDefault:":8080"`

	// Store backend: "sqlite" (default), "dynamodb", or "memory".
	Store string `env:"TT_STORE" envDefault:"sqlite"`

	// DBPath for the sqlite store. Empty = default data directory.
	DBPath string `env:"TT_DB_PATH"`

	// ConversationTable for the dynamodb store.
	ConversationTable string `env:"TT_CONVERSATION_TABLE" envDefault:"techtranslator-conversations"`

	// DisableEngine makes /query answer 503, mirroring an undeployed
	// model endpoint.
	DisableEngine bool `env:"TT_DISABLE_ENGINE" envDefault:"false"`
}

// LoadConfig parses the TT_* environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse server config: %w", err)
	}
	return cfg, nil
}
