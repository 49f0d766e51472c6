// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the LAN Chat relay.
package server

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultMaxMessageSize caps one inbound frame at 1 MiB.
const DefaultMaxMessageSize = 1 << 20

var validate = validator.New()

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int           `validate:"gt=0"`
	RefillInterval time.Duration `validate:"gt=0"`
}

// Config holds the relay configuration including security controls.
type Config struct {
	Port              string   `validate:"required"`
	AllowedOrigins    []string
	MaxMessageSize    int64 `validate:"gt=0"`
	RateLimit         RateLimitConfig
	HistoryCapacity   int    `validate:"gt=0"`
	TimeLayout        string `validate:"required"`
	ClearBroadcast    bool
	TrustProxyHeaders bool
	LogLevel          string        `validate:"oneof=DEBUG INFO WARN ERROR"`
	ShutdownTimeout   time.Duration `validate:"gt=0"`
}

// environment mirrors Config with the variable names read at startup.
type environment struct {
	Port              string        `env:"SERVER_PORT,default=:8080"`
	AllowedOrigins    string        `env:"ALLOWED_ORIGINS,default=http://localhost:8080"`
	MaxMessageSize    int64         `env:"MAX_MESSAGE_SIZE,default=1048576"`
	RateLimitBurst    int           `env:"RATE_LIMIT_BURST,default=5"`
	RateLimitInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL,default=1s"`
	HistoryCapacity   int           `env:"HISTORY_CAPACITY,default=20"`
	TimeLayout        string        `env:"TIME_LAYOUT,default=15:04:05"`
	ClearBroadcast    bool          `env:"CLEAR_BROADCAST,default=false"`
	TrustProxyHeaders bool          `env:"TRUST_PROXY_HEADERS,default=true"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

func defaultConfig() Config {
	return Config{
		Port: ":8080",
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		MaxMessageSize: DefaultMaxMessageSize,
		RateLimit: RateLimitConfig{
			Burst:          5,
			RefillInterval: time.Second,
		},
		HistoryCapacity:   20,
		TimeLayout:        "15:04:05",
		ClearBroadcast:    false,
		TrustProxyHeaders: true,
		LogLevel:          "INFO",
		ShutdownTimeout:   10 * time.Second,
	}
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv builds a Config from environment variables, after loading
// an optional .env file from the working directory. Unset variables fall back
// to defaults; malformed or out-of-range values are rejected.
func NewConfigFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var raw environment
	if _, err := env.UnmarshalFromEnviron(&raw); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	cfg := &Config{
		Port:           raw.Port,
		AllowedOrigins: parseOrigins(raw.AllowedOrigins),
		MaxMessageSize: raw.MaxMessageSize,
		RateLimit: RateLimitConfig{
			Burst:          raw.RateLimitBurst,
			RefillInterval: raw.RateLimitInterval,
		},
		HistoryCapacity:   raw.HistoryCapacity,
		TimeLayout:        raw.TimeLayout,
		ClearBroadcast:    raw.ClearBroadcast,
		TrustProxyHeaders: raw.TrustProxyHeaders,
		LogLevel:          strings.ToUpper(strings.TrimSpace(raw.LogLevel)),
		ShutdownTimeout:   raw.ShutdownTimeout,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
