// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
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
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host    string
	Port    string
	Env     string // "development", "production", "testing"
	BaseURL string // public site URL, used to build claim links and checkout redirects

	// PostgreSQL connection
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBMaxOpen   int
	DBMaxIdle   int
	DBTxTimeout time.Duration

	// Valkey (Redis-compatible session store)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	ValkeyDB       int

	// Optional bootstrap admin. Nothing is seeded when either is empty.
	AdminEmail    string
	AdminPassword string

	// Claim links
	ClaimTokenTTL time.Duration

	// Places search collaborator
	PlacesAPIKey  string
	PlacesBaseURL string

	// Payment checkout collaborator
	PaymentSecretKey     string
	PaymentWebhookSecret string
	PaymentBaseURL       string
	PremiumPriceCents    int64

	// S3-compatible object storage for provider images
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host:    envOrDefault("APP_HOST", "0.0.0.0"),
		Port:    envOrDefault("APP_PORT", "8080"),
		Env:     envOrDefault("APP_ENV", "development"),
		BaseURL: strings.TrimRight(envOrDefault("APP_BASE_URL", "http://localhost:8080"), "/"),

		DBHost:      envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:      envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:      envOrDefault("POSTGRES_USER", "homepros"),
		DBPassword:  envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:      envOrDefault("POSTGRES_DB", "homepros"),
		DBMaxOpen:   envIntOrDefault("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdle:   envIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		DBTxTimeout: envDurationOrDefault("DB_TX_TIMEOUT", 5*time.Second),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
		ValkeyDB:       envIntOrDefault("VALKEY_DB", 0),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		ClaimTokenTTL: envDurationOrDefault("CLAIM_TOKEN_TTL", 7*24*time.Hour),

		PlacesAPIKey:  os.Getenv("PLACES_API_KEY"),
		PlacesBaseURL: envOrDefault("PLACES_BASE_URL", "https://places.googleapis.com/v1"),

		PaymentSecretKey:     os.Getenv("PAYMENT_SECRET_KEY"),
		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		PaymentBaseURL:       envOrDefault("PAYMENT_BASE_URL", "https://api.stripe.com/v1"),
		PremiumPriceCents:    int64(envIntOrDefault("PREMIUM_PRICE_CENTS", 4900)),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "homepros-public"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.PaymentSecretKey != "" && cfg.PaymentWebhookSecret == "" {
			return nil, fmt.Errorf("PAYMENT_WEBHOOK_SECRET must be set when payments are enabled in production")
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

// IsProd returns true if the application is running in production mode.
func (c *Config) IsProd() bool {
	return c.Env == "production"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envIntOrDefault reads an integer environment variable. Unparseable values
// fall back to the default.
func envIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// envDurationOrDefault reads a Go duration string such as "5s" or "168h".
func envDurationOrDefault(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
