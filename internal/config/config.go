// Package config handles loading and parsing application configuration.
// The config file path comes from, in priority order:
//  1. The --config flag of the command being run
//  2. The environment variable CONFIG_PATH
//
// A .env file in the working directory, when present, is loaded into the
// environment first so its values can override the YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity: "dev", "staging", "prod".
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	// StoragePath is the filesystem path to the SQLite .db file.
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`

	// CatalogPath points at a YAML room/meal catalog. Empty means the
	// built-in catalog.
	CatalogPath string `yaml:"catalog_path" env:"CATALOG_PATH"`

	// SubmitDelay is how long a registration stays in the submitting
	// state before it is stored.
	SubmitDelay time.Duration `yaml:"submit_delay" env:"SUBMIT_DELAY" env-default:"2s"`

	// SessionTTL is how long a registration session may sit unused before
	// it is discarded and its uploads released.
	SessionTTL time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"30m"`

	HTTPServer `yaml:"http_server"`
	NATS       `yaml:"nats"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8082".
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true"`
}

// NATS configures registration event publishing. Publishing is disabled
// when URL is empty.
type NATS struct {
	URL     string `yaml:"url"     env:"NATS_URL"`
	Subject string `yaml:"subject" env:"NATS_SUBJECT" env-default:"hostel.tenant.registered"`
}

var ErrNoConfigPath = errors.New("config path is not set: use --config flag or CONFIG_PATH env var")

// Load reads and validates the config at path, falling back to
// CONFIG_PATH when path is empty.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		return nil, ErrNoConfigPath
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	// cleanenv reads the YAML file, then any env:"..." overrides, and
	// enforces env-required:"true".
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	return &cfg, nil
}
