// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

// Package config loads and validates Goalpost configuration.
//
// Configuration is merged from three layers, later layers winning:
//
//  1. compiled-in defaults
//  2. a YAML file (config.yaml, /etc/goalpost/config.yaml, or $CONFIG_PATH)
//  3. GOALPOST_-prefixed environment variables
//     (GOALPOST_SERVER_PORT, GOALPOST_SECURITY_JWT_SECRET, ...)
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration object.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Events   EventsConfig   `koanf:"events"`
	Ledger   LedgerConfig   `koanf:"ledger"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// CORSOrigins lists allowed browser origins; "*" allows any.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimit is requests per minute per client IP on API routes.
	RateLimit int `koanf:"rate_limit"`

	// AuthRateLimit is requests per minute per client IP on auth routes.
	AuthRateLimit int `koanf:"auth_rate_limit"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file, or ":memory:" for tests.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// SecurityConfig holds authentication settings.
type SecurityConfig struct {
	// JWTSecret signs session tokens (HS256); at least 32 characters.
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`
	BcryptCost     int           `koanf:"bcrypt_cost"`

	// LoginRatePerMinute caps login attempts per client IP; excess
	// attempts are rejected before password verification.
	LoginRatePerMinute int `koanf:"login_rate_per_minute"`
	LoginBurst         int `koanf:"login_burst"`
}

// EventsConfig holds the NATS / Watermill event settings.
type EventsConfig struct {
	Enabled bool `koanf:"enabled"`

	// URL of the NATS server; ignored when Embedded is true.
	URL string `koanf:"url"`

	// Embedded runs an in-process NATS JetStream server.
	Embedded bool   `koanf:"embedded"`
	StoreDir string `koanf:"store_dir"`

	// Stream retention for domain events.
	RetentionDays int `koanf:"retention_days"`
}

// LedgerConfig holds sticker-ledger settings.
type LedgerConfig struct {
	// IdempotencyPath is the Badger directory for grant idempotency keys;
	// empty selects an in-memory store.
	IdempotencyPath string `koanf:"idempotency_path"`

	// IdempotencyTTL bounds how long a grant idempotency key is honored.
	IdempotencyTTL time.Duration `koanf:"idempotency_ttl"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that cannot work at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range [1, 65535]", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters")
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("security.session_timeout must be positive")
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		return fmt.Errorf("security.bcrypt_cost %d out of range [4, 31]", c.Security.BcryptCost)
	}
	if c.Events.Enabled && !c.Events.Embedded && c.Events.URL == "" {
		return fmt.Errorf("events.url is required when events are enabled without an embedded server")
	}
	if c.Ledger.IdempotencyTTL <= 0 {
		return fmt.Errorf("ledger.idempotency_ttl must be positive")
	}
	return nil
}
