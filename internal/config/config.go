package config

import (
	"fmt"

	"pcgstreams/internal"
	"pcgstreams/internal/errors"

	"github.com/caarlos0/env/v11"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Streams  StreamsConfig
	LogLevel string `env:"LOG_LEVEL" envDefault:"INFO"`
}

// DatabaseConfig holds the plan ledger connection settings
type DatabaseConfig struct {
	Driver       string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	URL          string `env:"DATABASE_URL"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
}

// StreamsConfig holds defaults for plan construction and permutation runs
type StreamsConfig struct {
	Label           string `env:"STREAM_LABEL" envDefault:"workers"`
	DefaultWorkers  int    `env:"DEFAULT_WORKERS" envDefault:"4"`
	DefaultShuffles int    `env:"DEFAULT_SHUFFLES" envDefault:"1000"`
	MaxDraws        int    `env:"MAX_DRAWS" envDefault:"10000"`
	MaxWorkers      int    `env:"MAX_WORKERS" envDefault:"1024"`
}

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom reads configuration from the given variables instead of the
// process environment
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(env.Options{Environment: environ})
}

func load(opts env.Options) (*Config, error) {
	config := &Config{}
	if err := env.ParseWithOptions(config, opts); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "failed to parse environment"))
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Level returns the configured log level
func (c *Config) Level() internal.LogLevel {
	level, _ := internal.ParseLogLevel(c.LogLevel)
	return level
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	switch config.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unsupported DATABASE_DRIVER %q", config.Database.Driver))
	}
	if config.Streams.Label == "" {
		return errors.ConfigInvalid("STREAM_LABEL must not be empty")
	}
	if config.Streams.DefaultWorkers < 1 {
		return errors.ConfigInvalid("DEFAULT_WORKERS must be positive")
	}
	if config.Streams.DefaultShuffles < 1 {
		return errors.ConfigInvalid("DEFAULT_SHUFFLES must be positive")
	}
	if config.Streams.MaxDraws < 1 {
		return errors.ConfigInvalid("MAX_DRAWS must be positive")
	}
	if config.Streams.MaxWorkers < 1 {
		return errors.ConfigInvalid("MAX_WORKERS must be positive")
	}
	if config.Streams.DefaultWorkers > config.Streams.MaxWorkers {
		return errors.ConfigInvalid("DEFAULT_WORKERS must not exceed MAX_WORKERS")
	}
	if _, ok := internal.ParseLogLevel(config.LogLevel); !ok {
		return errors.ConfigInvalid(fmt.Sprintf("unknown LOG_LEVEL %q", config.LogLevel))
	}
	return nil
}
