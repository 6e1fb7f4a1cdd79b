package config

import (
	"strings"
	"testing"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	c := &Config{}
	c.LoadDefaults()
	c.ServiceSecret = strings.Repeat("s", MinSecretLength)
	return c
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_SecretMissing(t *testing.T) {
	c := validConfig()
	c.ServiceSecret = ""
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not set")
}

func TestValidate_SecretTooShort(t *testing.T) {
	c := validConfig()
	c.ServiceSecret = "short"
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
}

func TestValidate_IterationsTooLow(t *testing.T) {
	c := validConfig()
	c.KDFIterations = 1_000
	require.Error(t, c.Validate())
}

func TestValidate_NormalizesWorkers(t *testing.T) {
	c := validConfig()
	c.KDFWorkers = 0
	require.NoError(t, c.Validate())
	assert.Equal(t, 1, c.KDFWorkers)
}

func TestLoad_EnvOverlay(t *testing.T) {
	t.Setenv("MA_SPIRITUALITE_SECRET", strings.Repeat("x", MinSecretLength))
	t.Setenv("MA_SPIRITUALITE_DB", "/tmp/journal.db")
	t.Setenv("MA_SPIRITUALITE_KDF_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/journal.db", cfg.DatabasePath)
	assert.Equal(t, 8, cfg.KDFWorkers)
	assert.Equal(t, cryptox.DefaultIterations, cfg.KDFIterations)
}

func TestLoad_FailsFastWithoutSecret(t *testing.T) {
	t.Setenv("MA_SPIRITUALITE_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}
