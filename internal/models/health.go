// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package models

// HealthStatus is the readiness report of the service.
type HealthStatus struct {
	Status             string  `json:"status"` // "healthy" or "degraded"
	Version            string  `json:"version"`
	CatalogEntries     int     `json:"catalog_entries"`
	PreferencesHealthy bool    `json:"preferences_healthy"`
	Sessions           int     `json:"sessions"`
	WebSocketClients   int     `json:"websocket_clients"`
	Uptime             float64 `json:"uptime_seconds"`
}
