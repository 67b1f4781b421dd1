// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/framedeck/internal/models"
	"github.com/tomtom215/framedeck/internal/preferences"
)

// GetPreferences returns the caller's stored preferences. A user without
// any gets an empty record rather than 404.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	if !h.requirePreferences(w) {
		return
	}
	uid := userID(r)

	p, err := h.prefs.Get(r.Context(), uid)
	switch {
	case errors.Is(err, preferences.ErrPreferenceNotFound):
		p = &preferences.Preferences{UserID: uid}
	case err != nil:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read preferences", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, p)
}

// PutPreferences replaces the caller's preferences. The last active entry
// must exist in the current catalog.
func (h *Handler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	if !h.requirePreferences(w) {
		return
	}
	var req PreferencesRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.LastActiveID != "" && !h.catalog.Current().Has(req.LastActiveID) {
		respondAPIError(w, http.StatusBadRequest, &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: "last_active_id is not a configured entry",
			Details: map[string]interface{}{"last_active_id": req.LastActiveID},
		}, nil)
		return
	}

	p := &preferences.Preferences{
		UserID:       userID(r),
		LastActiveID: req.LastActiveID,
		Viewport:     req.Viewport,
	}
	if err := h.prefs.Put(r.Context(), p); err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save preferences", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, p)
}

func (h *Handler) requirePreferences(w http.ResponseWriter) bool {
	if h.prefs == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Preferences are disabled", nil)
		return false
	}
	return true
}
