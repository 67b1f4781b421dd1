// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/framedeck/internal/models"
	"github.com/tomtom215/framedeck/internal/preferences"
)

// healthProbeUser is read by the readiness probe. It never has preferences.
const healthProbeUser = "__health__"

// HealthLive reports that the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady reports whether the catalog is loaded and the preference store
// answers. A degraded service responds 503 so load balancers hold traffic.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	health := models.HealthStatus{
		Status:             "healthy",
		Version:            h.version,
		PreferencesHealthy: true,
		Sessions:           h.sessions.Len(),
		Uptime:             time.Since(h.startTime).Seconds(),
	}

	catalog := h.catalog.Current()
	health.CatalogEntries = catalog.Len()
	if catalog == nil {
		health.Status = "degraded"
	}

	if h.prefs != nil {
		if _, err := h.prefs.Get(r.Context(), healthProbeUser); err != nil && !errors.Is(err, preferences.ErrPreferenceNotFound) {
			health.PreferencesHealthy = false
			health.Status = "degraded"
		}
	}

	if h.wsHub != nil {
		health.WebSocketClients = h.wsHub.GetClientCount()
	}

	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	respondSuccess(w, r, status, health)
}
