// Package config handles runtime configuration for the journal core:
// defaults, environment overlay, and fail-fast validation of the service
// secret.
package config

import (
	"errors"
	"fmt"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/cryptox"
	"github.com/caarlos0/env/v11"
)

// MinSecretLength is the minimum acceptable service secret length in bytes.
// A shorter secret is a deployment mistake, not a runtime condition.
const MinSecretLength = 32

// Config holds runtime settings for the journal core.
//
// Fields:
//   - DatabasePath: path of the SQLite database file backing all state.
//   - ServiceSecret: long-lived symmetric secret shared by all key
//     derivations. Loaded once at process start.
//   - KDFIterations: PBKDF2 work factor.
//   - KDFWorkers: bound on concurrent key derivations.
type Config struct {
	DatabasePath  string `env:"MA_SPIRITUALITE_DB"`
	ServiceSecret string `env:"MA_SPIRITUALITE_SECRET"`
	KDFIterations int    `env:"MA_SPIRITUALITE_KDF_ITERATIONS"`
	KDFWorkers    int    `env:"MA_SPIRITUALITE_KDF_WORKERS"`
}

// LoadDefaults populates Config with development defaults. The service
// secret has no default on purpose: it must come from the environment.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "data/ma_spiritualite.db"
	c.KDFIterations = cryptox.DefaultIterations
	c.KDFWorkers = 4
}

// Load builds a Config by applying defaults and then overlaying values from
// environment variables. The result is validated: a missing or short service
// secret fails here, before any storage is opened.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the startup preconditions.
func (c *Config) Validate() error {
	if c.ServiceSecret == "" {
		return errors.New("service secret is not set (MA_SPIRITUALITE_SECRET)")
	}
	if len(c.ServiceSecret) < MinSecretLength {
		return fmt.Errorf("service secret is too short: %d bytes, need at least %d", len(c.ServiceSecret), MinSecretLength)
	}
	if c.KDFIterations < cryptox.DefaultIterations {
		return fmt.Errorf("kdf iterations too low: %d, need at least %d", c.KDFIterations, cryptox.DefaultIterations)
	}
	if c.DatabasePath == "" {
		return errors.New("database path is not set")
	}
	if c.KDFWorkers <= 0 {
		c.KDFWorkers = 1
	}
	return nil
}
