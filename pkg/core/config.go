package core

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment variable read by LoadConfig.
const EnvPrefix = "MARKET"

// Config contains all configuration options for a market-data client.
// Rate limiting and the circuit breaker are opt-in; with the defaults every
// call issues exactly one request with no retries.
type Config struct {
	BaseURL string `json:"base_url" envconfig:"BASE_URL" validate:"required,url"`

	// Timeout is the maximum duration for a single HTTP request.
	Timeout      time.Duration `json:"timeout" envconfig:"TIMEOUT" default:"10s" validate:"min=1ms"`
	MaxRetries   int           `json:"max_retries" envconfig:"MAX_RETRIES" default:"0" validate:"min=0"`
	RetryWaitMin time.Duration `json:"retry_wait_min" envconfig:"RETRY_WAIT_MIN" default:"100ms" validate:"min=0"`
	RetryWaitMax time.Duration `json:"retry_wait_max" envconfig:"RETRY_WAIT_MAX" default:"1s" validate:"min=0"`

	// RateLimitRequests of zero disables client-side rate limiting.
	RateLimitRequests int           `json:"rate_limit_requests" envconfig:"RATE_LIMIT_REQUESTS" default:"0" validate:"min=0"`
	RateLimitPeriod   time.Duration `json:"rate_limit_period" envconfig:"RATE_LIMIT_PERIOD" default:"1m" validate:"min=1ms"`

	CircuitBreakerEnabled          bool          `json:"circuit_breaker_enabled" envconfig:"CIRCUIT_BREAKER_ENABLED" default:"false"`
	CircuitBreakerFailThreshold    int           `json:"circuit_breaker_fail_threshold" envconfig:"CIRCUIT_BREAKER_FAIL_THRESHOLD" default:"5"`
	CircuitBreakerSuccessThreshold int           `json:"circuit_breaker_success_threshold" envconfig:"CIRCUIT_BREAKER_SUCCESS_THRESHOLD" default:"2"`
	CircuitBreakerTimeout          time.Duration `json:"circuit_breaker_timeout" envconfig:"CIRCUIT_BREAKER_TIMEOUT" default:"30s"`

	// PublicSecret signs anonymous-tier requests. It may be empty, in which
	// case anonymous requests go out unsigned.
	PublicSecret string `json:"-" envconfig:"PUBLIC_API_SECRET"`

	LogLevel string `json:"log_level" envconfig:"LOG_LEVEL" default:"info" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config for the given API base URL.
// Default values: 10s timeout, no retries, rate limiting and circuit breaker disabled.
func DefaultConfig(baseURL string) *Config {
	return &Config{
		BaseURL:      baseURL,
		Timeout:      10 * time.Second,
		MaxRetries:   0,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 1 * time.Second,

		RateLimitRequests: 0,
		RateLimitPeriod:   time.Minute,

		CircuitBreakerEnabled:          false,
		CircuitBreakerFailThreshold:    5,
		CircuitBreakerSuccessThreshold: 2,
		CircuitBreakerTimeout:          30 * time.Second,

		LogLevel: "info",
	}
}

// LoadConfig reads MARKET_* environment variables into a Config.
// Files named in envFiles (default ".env") are loaded first when present;
// variables already set in the process environment win.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.CircuitBreakerEnabled {
		if c.CircuitBreakerFailThreshold <= 0 {
			return errors.New("CircuitBreakerFailThreshold must be positive when enabled")
		}
		if c.CircuitBreakerSuccessThreshold <= 0 {
			return errors.New("CircuitBreakerSuccessThreshold must be positive when enabled")
		}
		if c.CircuitBreakerTimeout <= 0 {
			return errors.New("CircuitBreakerTimeout must be positive when enabled")
		}
	}
	return nil
}

// WithPublicSecret sets the anonymous-tier secret and returns the config for chaining.
func (c *Config) WithPublicSecret(secret string) *Config {
	c.PublicSecret = secret
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRateLimit enables client-side rate limiting and returns the config for chaining.
func (c *Config) WithRateLimit(requests int, period time.Duration) *Config {
	c.RateLimitRequests = requests
	c.RateLimitPeriod = period
	return c
}

// WithCircuitBreaker enables the circuit breaker and returns the config for chaining.
func (c *Config) WithCircuitBreaker(failThreshold, successThreshold int, timeout time.Duration) *Config {
	c.CircuitBreakerEnabled = true
	c.CircuitBreakerFailThreshold = failThreshold
	c.CircuitBreakerSuccessThreshold = successThreshold
	c.CircuitBreakerTimeout = timeout
	return c
}
