// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package api

import (
	"net/http"

	"github.com/tomtom215/framedeck/internal/models"
)

// GroupsResponse lists the catalog for menus.
type GroupsResponse struct {
	Groups             []models.URLGroup `json:"groups"`
	DefaultIdleTimeout string            `json:"default_idle_timeout"`
}

// Groups returns the configured URL groups in order.
func (h *Handler) Groups(w http.ResponseWriter, r *http.Request) {
	catalog := h.catalog.Current()
	resp := GroupsResponse{Groups: []models.URLGroup{}}
	if catalog != nil {
		if catalog.Groups != nil {
			resp.Groups = catalog.Groups
		}
		resp.DefaultIdleTimeout = catalog.DefaultIdleTimeout.String()
	}
	respondSuccess(w, r, http.StatusOK, resp)
}
