// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package config

import (
	"strings"
	"time"
)

// Config holds all application configuration.
// Load it with LoadWithKoanf: defaults, then the YAML file, then environment
// variables.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Security    SecurityConfig    `koanf:"security"`
	Logging     LoggingConfig     `koanf:"logging"`
	Lifecycle   LifecycleConfig   `koanf:"lifecycle"`
	Session     SessionConfig     `koanf:"session"`
	Catalog     CatalogConfig     `koanf:"catalog"`
	Preferences PreferencesConfig `koanf:"preferences"`
	WebSocket   WebSocketConfig   `koanf:"websocket"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // "development", "staging", "production" (default: "development")
}

// SecurityConfig holds authentication and request limiting settings.
// Framedeck only verifies bearer tokens; issuing them is left to the
// identity provider in front of it.
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"` // "none" or "jwt"
	JWTSecret         string        `koanf:"jwt_secret"`
	JWTIssuer         string        `koanf:"jwt_issuer"` // optional; checked when set
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// LifecycleConfig tunes the iframe pool of every dashboard session.
type LifecycleConfig struct {
	// PoolCapacity bounds mounted iframes per session. 0 means unbounded,
	// so only idle timeouts unload entries.
	PoolCapacity int `koanf:"pool_capacity"`

	// SweepInterval is the activity clock period. It bounds how late an idle
	// entry can be unloaded, not whether it is.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// DefaultViewport is used when a session does not state one.
	DefaultViewport string `koanf:"default_viewport"`

	// Strict makes references to entries outside the catalog panic.
	// Always on in development.
	Strict bool `koanf:"strict"`
}

// SessionConfig controls dashboard session bookkeeping.
type SessionConfig struct {
	// IdleTTL removes sessions with no attached client and no events.
	IdleTTL time.Duration `koanf:"idle_ttl"`

	// MaxSessions caps concurrent sessions.
	MaxSessions int `koanf:"max_sessions"`
}

// CatalogConfig locates the admin-managed URL catalog.
type CatalogConfig struct {
	Path  string `koanf:"path"`
	Watch bool   `koanf:"watch"` // reload on file change
}

// PreferencesConfig configures the per-user preference store.
type PreferencesConfig struct {
	// Path is the BadgerDB directory. Empty keeps preferences in memory.
	Path string `koanf:"path"`

	// SyncWrites fsyncs every write.
	SyncWrites bool `koanf:"sync_writes"`
}

// WebSocketConfig limits inbound presentation events per connection.
type WebSocketConfig struct {
	EventsPerSecond float64 `koanf:"events_per_second"`
	EventBurst      int     `koanf:"event_burst"`
}

// IsProduction returns true if the application is running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment returns true for the development environment.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

// StrictLifecycle reports whether lifecycle controllers run in strict mode.
func (c *Config) StrictLifecycle() bool {
	return c.Lifecycle.Strict || c.IsDevelopment()
}
