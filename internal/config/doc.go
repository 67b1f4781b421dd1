// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

/*
Package config provides centralized configuration management for Framedeck.

# Configuration Sources

LoadWithKoanf layers three sources, later ones winning:
  - Built-in defaults (defaultConfig)
  - An optional YAML file: $CONFIG_PATH, ./config.yaml, /etc/framedeck/config.yaml
  - Environment variables, through an explicit name mapping

Unmapped environment variables are ignored.

# Environment Variables

Server:
  - HTTP_HOST (default: 0.0.0.0), HTTP_PORT (default: 8080)
  - HTTP_TIMEOUT (default: 30s), SHUTDOWN_TIMEOUT (default: 10s)
  - ENVIRONMENT: development, staging, production (default: development)

Security:
  - AUTH_MODE: none or jwt (default: jwt; none is rejected in production)
  - JWT_SECRET: HS256 verification key, min 32 chars
  - JWT_ISSUER: expected iss claim (optional)
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - CORS_ORIGINS: comma-separated (default: *)

Logging:
  - LOG_LEVEL (default: info), LOG_FORMAT json|console (default: json), LOG_CALLER

Lifecycle:
  - POOL_CAPACITY: max mounted iframes per session, 0 = unbounded (default: 0)
  - SWEEP_INTERVAL: activity clock period (default: 5s)
  - DEFAULT_VIEWPORT: desktop or mobile (default: desktop)
  - LIFECYCLE_STRICT: panic on unknown entry ids (always on in development)

Sessions:
  - SESSION_IDLE_TTL (default: 30m), MAX_SESSIONS (default: 1000)

Catalog:
  - CATALOG_PATH (default: /data/catalog.yaml), CATALOG_WATCH (default: true)

Preferences:
  - PREFERENCES_PATH: BadgerDB directory, empty for in-memory (default: /data/preferences)
  - PREFERENCES_SYNC_WRITES (default: false)

WebSocket:
  - WS_EVENTS_PER_SECOND (default: 20), WS_EVENT_BURST (default: 40)

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

# Thread Safety

Config is read-only after loading and safe to share between goroutines.
*/
package config
