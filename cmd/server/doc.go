// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

/*
Command server runs Framedeck, the backend of a dashboard-of-dashboards
portal. The browser shows one iframe per catalog entry; Framedeck decides
which iframes are mounted, which one is visible and when idle ones are
unloaded, and tells the browser through intents.

# Startup

 1. Configuration: Koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog, JSON or console
 3. Catalog: the admin-managed YAML file of groups and entries
 4. Preferences: BadgerDB store of each user's last active entry and viewport
 5. Sessions: one lifecycle controller per open dashboard
 6. WebSocket hub: pushes each session's intents to its browser tabs
 7. Supervisor tree: suture v4, see package supervisor
 8. HTTP server: chi router, see package api

# Configuration

	HTTP_PORT=8080
	ENVIRONMENT=production       # development enables strict lifecycle checks
	LOG_LEVEL=info
	LOG_FORMAT=json

	AUTH_MODE=jwt                # jwt or none
	JWT_SECRET=<32+ chars>       # shared with the identity provider
	JWT_ISSUER=https://id.example.com

	CATALOG_PATH=/data/catalog.yaml
	CATALOG_WATCH=true
	PREFERENCES_PATH=/data/preferences   # empty keeps preferences in memory

	POOL_CAPACITY=6              # mounted iframes per session, 0 = unbounded
	SWEEP_INTERVAL=5s
	SESSION_IDLE_TTL=30m
	MAX_SESSIONS=1000

CONFIG_PATH points at a YAML file with the same keys nested by section.

# Signals

SIGINT and SIGTERM cancel the supervisor tree: the HTTP server drains
within SHUTDOWN_TIMEOUT, websocket clients are closed, and the preference
store is closed last.
*/
package main
