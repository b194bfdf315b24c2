// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MaxRows caps the data rows of one upload.
	MaxRows int `koanf:"max_rows"`

	// MaxUploadBytes caps the size of one upload.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// SessionTTLMinutes is how long an uploaded dataset is kept.
	SessionTTLMinutes int `koanf:"session_ttl_minutes"`

	// SessionBackend is memory or redis.
	SessionBackend string `koanf:"session_backend"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// SortWaitingByTechnicalStart orders the waiting bucket by technical start date.
	SortWaitingByTechnicalStart bool `koanf:"sort_waiting_by_technical_start"`

	// StarterPlans is a comma-separated list of plan names that exclude
	// plan-gated scoring criteria.
	StarterPlans string `koanf:"starter_plans"`

	// CORSOrigins is a comma-separated list of allowed origins.
	CORSOrigins string `koanf:"cors_origins"`

	// S3Region is used when a spreadsheet is read from s3://.
	S3Region string `koanf:"s3_region"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		MaxRows:           50_000,
		MaxUploadBytes:    20 << 20,
		SessionTTLMinutes: 120,
		SessionBackend:    BackendMemory,
		RedisAddr:         "localhost:6379",
		StarterPlans:      "starter",
		CORSOrigins:       "*",
		S3Region:          "us-east-1",
	}
}

// SessionTTL returns the session lifetime.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// AllowedOrigins splits CORSOrigins.
func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSOrigins)
}

// StarterPlanNames splits StarterPlans.
func (c *Config) StarterPlanNames() []string {
	return splitList(c.StarterPlans)
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Validate checks the values Load cannot type-check.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxRows <= 0:
		return fmt.Errorf("%w: max_rows must be positive", ErrInvalidConfig)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	case c.SessionTTLMinutes <= 0:
		return fmt.Errorf("%w: session_ttl_minutes must be positive", ErrInvalidConfig)
	case len(c.StarterPlanNames()) == 0:
		return fmt.Errorf("%w: starter_plans must name at least one plan", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	switch c.SessionBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr is required for the redis backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: session_backend %q", ErrInvalidConfig, c.SessionBackend)
	}
	return nil
}
