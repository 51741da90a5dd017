// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ProviderSettings configures one generation provider.
type ProviderSettings struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache, pub/sub and sessions)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Generation
	AIProvider       string // "gemini", "openai", "claude", "mistral"
	Providers        map[string]ProviderSettings
	AIRetryAttempts  int
	AIRetryBaseDelay time.Duration
	AIRateLimit      int // requests per minute per client on the AI endpoints

	// Document layout
	PortfolioID   string
	ThemeDocument string

	// Origins allowed to open live websocket connections. Empty means same-origin only.
	AllowedOrigins []string

	// S3-compatible media storage
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string
}

// providerNames lists the providers read from <NAME>_API_KEY style variables.
var providerNames = []string{"gemini", "openai", "claude", "mistral"}

// Load reads configuration from the environment, after loading an optional
// .env file from the working directory. Returns an error for unparsable
// values and for insecure defaults in production.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "folio"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "folio"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		AIProvider: strings.ToLower(envOrDefault("AI_PROVIDER", "gemini")),
		Providers:  make(map[string]ProviderSettings, len(providerNames)),

		PortfolioID:    envOrDefault("PORTFOLIO_ID", "default"),
		ThemeDocument:  envOrDefault("THEME_DOCUMENT", "themes/active_theme"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "folio-media"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),
	}

	for _, name := range providerNames {
		prefix := strings.ToUpper(name)
		cfg.Providers[name] = ProviderSettings{
			APIKey:  os.Getenv(prefix + "_API_KEY"),
			Model:   os.Getenv(prefix + "_MODEL"),
			BaseURL: os.Getenv(prefix + "_BASE_URL"),
		}
	}

	var err error
	if cfg.AIRetryAttempts, err = envInt("AI_RETRY_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.AIRetryBaseDelay, err = envDuration("AI_RETRY_BASE_DELAY", 250*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.AIRateLimit, err = envInt("AI_RATE_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.AIRetryAttempts < 1 {
		return nil, fmt.Errorf("AI_RETRY_ATTEMPTS must be at least 1")
	}
	if cfg.AIRateLimit < 1 {
		return nil, fmt.Errorf("AI_RATE_LIMIT must be at least 1")
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// SecureCookies reports whether cookies should carry the Secure attribute.
func (c *Config) SecureCookies() bool {
	return c.Env == "production"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
