// Package config loads the reviewer service configuration from the
// environment, an optional .env file and an optional YAML overlay.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config is the service configuration. Secrets are only read from the
// environment and never from the YAML overlay.
type Config struct {
	SupabaseURL       string        `env:"SUPABASE_URL" yaml:"supabase_url"`
	SupabaseAnonKey   string        `env:"SUPABASE_ANON_KEY" yaml:"-"`
	SupabaseJWTSecret string        `env:"SUPABASE_JWT_SECRET" yaml:"-"`
	SupabaseTimeout   time.Duration `env:"SUPABASE_TIMEOUT,default=30s" yaml:"supabase_timeout"`
	DatabaseURL       string        `env:"DATABASE_URL" yaml:"-"`

	HTTPAddr           string `env:"HTTP_ADDR,default=:8080" yaml:"http_addr"`
	LogLevel           string `env:"LOG_LEVEL,default=info" yaml:"log_level"`
	LogFormat          string `env:"LOG_FORMAT,default=json" yaml:"log_format"`
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS,default=*" yaml:"cors_allowed_origins"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS,default=10" yaml:"rate_limit_rps"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST,default=20" yaml:"rate_limit_burst"`

	ReviewRadiusMeters float64 `env:"REVIEW_RADIUS_METERS,default=300" yaml:"review_radius_meters"`
	LeaderboardLimit   int     `env:"LEADERBOARD_LIMIT,default=100" yaml:"leaderboard_limit"`

	ConfigFile string `env:"CONFIG_FILE" yaml:"-"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		SupabaseTimeout:    30 * time.Second,
		HTTPAddr:           ":8080",
		LogLevel:           "info",
		LogFormat:          "json",
		CORSAllowedOrigins: "*",
		RateLimitRPS:       10,
		RateLimitBurst:     20,
		ReviewRadiusMeters: 300,
		LeaderboardLimit:   100,
	}
}

// Load reads envFile when it exists, decodes the environment, applies the
// YAML overlay named by CONFIG_FILE and validates the result.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("load env (%s): %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat env (%s): %w", envFile, err)
		}
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if cfg.ConfigFile != "" {
		if err := cfg.ApplyFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv decodes the process environment without validating it.
func FromEnv() (*Config, error) {
	cfg := Default()
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	return cfg, nil
}

// Validate checks required settings and value ranges.
func (c *Config) Validate() error {
	var problems []string

	if c.SupabaseURL == "" {
		problems = append(problems, "SUPABASE_URL is required")
	} else if u, err := url.Parse(c.SupabaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, "SUPABASE_URL must be an absolute URL")
	}
	if c.SupabaseAnonKey == "" {
		problems = append(problems, "SUPABASE_ANON_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		problems = append(problems, "SUPABASE_JWT_SECRET is required")
	}
	if c.RateLimitRPS <= 0 {
		problems = append(problems, "RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimitBurst <= 0 {
		problems = append(problems, "RATE_LIMIT_BURST must be positive")
	}
	if c.ReviewRadiusMeters <= 0 {
		problems = append(problems, "REVIEW_RADIUS_METERS must be positive")
	}
	if c.LeaderboardLimit <= 0 {
		problems = append(problems, "LEADERBOARD_LIMIT must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// AllowedOrigins splits CORSAllowedOrigins on commas.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// HasDatabase reports whether a direct Postgres connection is configured.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}
