package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_LoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	configJSON := `{
		"http_port": 8080,
		"metrics_port": 9100,
		"log_level": "debug",
		"environment": "production",
		"auth": {
			"client_id": "shp-client-id",
			"api_url": "https://shopify.com/authentication/123",
			"base_url": "https://shop.example.com"
		},
		"upstream": {
			"timeout": "15s"
		}
	}`
	err := os.WriteFile(configPath, []byte(configJSON), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9100, cfg.MetricsPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "shp-client-id", cfg.Auth.ClientID)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout.Duration)

	// Test loading non-existent file
	_, err = Load(filepath.Join(tmpDir, "missing.json"))
	assert.Error(t, err)

	// Test loading invalid JSON
	invalidPath := filepath.Join(tmpDir, "invalid.json")
	err = os.WriteFile(invalidPath, []byte("{invalid json}"), 0644)
	require.NoError(t, err)
	_, err = Load(invalidPath)
	assert.Error(t, err)
}

func TestConfig_LoadFromEnvOnly(t *testing.T) {
	t.Setenv("CUSTOMER_API_CLIENT_ID", "env-client")
	t.Setenv("CUSTOMER_API_URL", "https://shopify.com/authentication/456")
	t.Setenv("BASE_URL", "https://store.example.com")
	t.Setenv("HTTP_PORT", "4000")
	t.Setenv("UPSTREAM_TIMEOUT", "30s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-client", cfg.Auth.ClientID)
	assert.Equal(t, 4000, cfg.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.Upstream.Timeout.Duration)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestConfig_Validation(t *testing.T) {
	valid := func() *Config {
		cfg := defaults()
		cfg.Auth.ClientID = "client-1"
		cfg.Auth.APIURL = "https://shopify.com/authentication/123"
		cfg.Auth.BaseURL = "https://shop.example.com"
		return cfg
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		shouldError bool
	}{
		{
			name:        "valid config",
			mutate:      func(c *Config) {},
			shouldError: false,
		},
		{
			name:        "missing client id",
			mutate:      func(c *Config) { c.Auth.ClientID = "" },
			shouldError: true,
		},
		{
			name:        "api url not a url",
			mutate:      func(c *Config) { c.Auth.APIURL = "not-a-url" },
			shouldError: true,
		},
		{
			name:        "api url trailing slash",
			mutate:      func(c *Config) { c.Auth.APIURL = "https://shopify.com/authentication/123/" },
			shouldError: true,
		},
		{
			name:        "missing base url",
			mutate:      func(c *Config) { c.Auth.BaseURL = "" },
			shouldError: true,
		},
		{
			name:        "bad log level",
			mutate:      func(c *Config) { c.LogLevel = "verbose" },
			shouldError: true,
		},
		{
			name:        "bad environment",
			mutate:      func(c *Config) { c.Environment = "staging" },
			shouldError: true,
		},
		{
			name:        "timeout too small",
			mutate:      func(c *Config) { c.Upstream.Timeout = Duration{100 * time.Millisecond} },
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.shouldError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_RedirectURI(t *testing.T) {
	cfg := defaults()
	cfg.Auth.BaseURL = "https://shop.example.com"
	assert.Equal(t, "https://shop.example.com/api/auth/callback", cfg.RedirectURI())

	cfg.Auth.BaseURL = "https://shop.example.com/"
	assert.Equal(t, "https://shop.example.com/api/auth/callback", cfg.RedirectURI())
}

func TestConfig_EnvironmentOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	configJSON := `{
		"auth": {
			"client_id": "file-client",
			"api_url": "https://shopify.com/authentication/123",
			"base_url": "https://shop.example.com"
		}
	}`
	err := os.WriteFile(configPath, []byte(configJSON), 0644)
	require.NoError(t, err)

	t.Setenv("CUSTOMER_API_CLIENT_ID", "env-client")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// Environment variables override file values
	assert.Equal(t, "env-client", cfg.Auth.ClientID)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.IsProduction())

	// Non-overridden values remain
	assert.Equal(t, "https://shopify.com/authentication/123", cfg.Auth.APIURL)
}
