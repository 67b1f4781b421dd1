// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package lifecycle

import (
	"fmt"

	"github.com/tomtom215/framedeck/internal/models"
)

// ViewportMode selects between desktop and mobile addresses.
type ViewportMode string

const (
	ViewportDesktop ViewportMode = "desktop"
	ViewportMobile  ViewportMode = "mobile"
)

// ParseViewportMode parses a viewport mode. The empty string means desktop.
func ParseViewportMode(s string) (ViewportMode, error) {
	switch ViewportMode(s) {
	case "", ViewportDesktop:
		return ViewportDesktop, nil
	case ViewportMobile:
		return ViewportMobile, nil
	default:
		return ViewportDesktop, fmt.Errorf("invalid viewport mode %q", s)
	}
}

// IsVisible reports whether id's content is on screen. Only the active entry
// is visible; other pooled entries stay mounted at zero size. The viewport
// mode does not change visibility.
func IsVisible(id string, sel SelectionView, _ ViewportMode) bool {
	return id != "" && id == sel.ActiveID
}

// ResolveAddress picks the address to mount for e. Mobile viewports use the
// mobile variant when one is configured.
func ResolveAddress(e models.URLEntry, mode ViewportMode) string {
	if mode == ViewportMobile && e.MobileURL != "" {
		return e.MobileURL
	}
	return e.URL
}
