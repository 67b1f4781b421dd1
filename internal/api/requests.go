// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package api

// CreateSessionRequest opens a dashboard session. Both fields are optional:
// the user's stored preferences and the configured defaults fill the gaps.
type CreateSessionRequest struct {
	Viewport string `json:"viewport,omitempty" validate:"omitempty,oneof=desktop mobile"`
	// ActiveID deep links to an entry.
	ActiveID string `json:"active_id,omitempty" validate:"omitempty,entryid"`
}

// ReportRequest is the presentation layer's load outcome for one mount.
type ReportRequest struct {
	// Generation echoes the mount intent; 0 means the current attempt.
	Generation uint64 `json:"generation"`
	OK         *bool  `json:"ok" validate:"required"`
	Message    string `json:"message,omitempty" validate:"max=1024"`
}

// ViewportRequest switches the session's viewport mode.
type ViewportRequest struct {
	Mode string `json:"mode" validate:"required,oneof=desktop mobile"`
}

// PreferencesRequest replaces the caller's stored preferences.
type PreferencesRequest struct {
	LastActiveID string `json:"last_active_id,omitempty" validate:"omitempty,entryid"`
	Viewport     string `json:"viewport,omitempty" validate:"omitempty,oneof=desktop mobile"`
}
