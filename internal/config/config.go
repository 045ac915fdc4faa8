package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config interface {
	EnvConfig
	APIConfig
	SecurityConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type StoreConfig interface {
	// GetRedisURL returns the Redis URL for persisted token pairs. Empty means in-memory.
	GetRedisURL() string
}

type mainConfig struct {
	EnvVars
	API
	Security
}

// New reads the configuration from the environment.
func New() (Config, error) {
	c := mainConfig{}
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	if err := c.API.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return c, nil
}
