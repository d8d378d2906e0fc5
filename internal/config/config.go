package config

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all configuration for the service. Every value can be set in
// the JSON config file and overridden through environment variables; the
// loaded struct is validated before any server is started so a missing
// value fails the process instead of the first request.
type Config struct {
	HTTPPort    int    `json:"http_port" validate:"gte=0,lte=65535"`
	MetricsPort int    `json:"metrics_port" validate:"gte=0,lte=65535"`
	LogLevel    string `json:"log_level" validate:"oneof=debug info warn error"`
	Environment string `json:"environment" validate:"oneof=development production"`

	Auth struct {
		// ClientID is the public OAuth client id issued by the commerce
		// platform's Customer Account API.
		ClientID string `json:"client_id" validate:"required"`
		// APIURL is the base URL of the Customer Account API, hosting
		// /oauth/authorize, /oauth/token and /graphql.
		APIURL string `json:"api_url" validate:"required,url"`
		// BaseURL is the public URL this deployment is reachable at; the
		// OAuth redirect URI is derived from it.
		BaseURL string `json:"base_url" validate:"required,url"`
	} `json:"auth"`

	Upstream struct {
		Timeout Duration `json:"timeout" validate:"min=1s,max=2m"`
	} `json:"upstream"`
}

// Duration is a wrapper around time.Duration that implements JSON
// marshaling/unmarshaling.
type Duration struct {
	time.Duration
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		if err != nil {
			return err
		}
		return nil
	default:
		return fmt.Errorf("invalid duration")
	}
}

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// CallbackPath is the fixed path the identity provider redirects back to.
const CallbackPath = "/api/auth/callback"

// RedirectURI derives the OAuth redirect URI from the deployment base URL.
func (c *Config) RedirectURI() string {
	return strings.TrimRight(c.Auth.BaseURL, "/") + CallbackPath
}

// IsProduction reports whether the service runs as a production deployment.
// Cookie Secure attributes key off this.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads configuration from a file, applies environment overrides and
// validates the result. An empty path skips the file and loads from
// defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{
		HTTPPort:    3000,
		MetricsPort: 9090,
		LogLevel:    "info",
		Environment: "development",
	}
	cfg.Upstream.Timeout = Duration{10 * time.Second}
	return cfg
}

// applyEnvOverrides overrides config fields with environment variables.
func (c *Config) applyEnvOverrides() error {
	// Auth overrides
	if v := os.Getenv("CUSTOMER_API_CLIENT_ID"); v != "" {
		c.Auth.ClientID = v
	}
	if v := os.Getenv("CUSTOMER_API_URL"); v != "" {
		c.Auth.APIURL = v
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		c.Auth.BaseURL = v
	}

	// HTTPPort overrides
	if v := os.Getenv("HTTP_PORT"); v != "" {
		var err error
		c.HTTPPort, err = strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing HTTP_PORT: %w", err)
		}
	}

	// MetricsPort overrides
	if v := os.Getenv("METRICS_PORT"); v != "" {
		var err error
		c.MetricsPort, err = strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing METRICS_PORT: %w", err)
		}
	}

	// LogLevel overrides
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	// Environment overrides
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Environment = v
	}

	// Upstream overrides
	if v := os.Getenv("UPSTREAM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing UPSTREAM_TIMEOUT: %w", err)
		}
		c.Upstream.Timeout = Duration{d}
	}

	return nil
}

// validate checks the configuration for errors.
func (c *Config) validate() error {
	validate := validator.New()

	// Register custom validation for Duration
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if duration, ok := field.Interface().(Duration); ok {
			return duration.Duration
		}
		return nil
	}, Duration{})

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if strings.HasSuffix(c.Auth.APIURL, "/") {
		return fmt.Errorf("api_url must not end with a trailing slash: %s", c.Auth.APIURL)
	}

	return nil
}
