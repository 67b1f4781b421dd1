// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/framedeck/internal/config"
	"github.com/tomtom215/framedeck/internal/logging"
	"github.com/tomtom215/framedeck/internal/preferences"
	"github.com/tomtom215/framedeck/internal/session"
	ws "github.com/tomtom215/framedeck/internal/websocket"
)

// Handler serves the HTTP API.
type Handler struct {
	config    *config.Config
	sessions  *session.Manager
	catalog   session.CatalogSource
	prefs     preferences.Store // nil when preferences are disabled
	wsHub     *ws.Hub
	version   string
	startTime time.Time
}

// NewHandler creates a new Handler. prefs may be nil.
func NewHandler(cfg *config.Config, sessions *session.Manager, catalog session.CatalogSource, prefs preferences.Store, wsHub *ws.Hub, version string) *Handler {
	return &Handler{
		config:    cfg,
		sessions:  sessions,
		catalog:   catalog,
		prefs:     prefs,
		wsHub:     wsHub,
		version:   version,
		startTime: time.Now(),
	}
}

// getUpgrader returns a configured WebSocket upgrader with origin validation
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates the Origin header against the configured
// CORS origins. Browsers always send Origin on a websocket handshake, so a
// missing header is rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if h.config == nil {
		return true
	}

	for _, allowedOrigin := range h.config.Security.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// userID returns the authenticated user, or the anonymous user when
// authentication is disabled.
func userID(r *http.Request) string {
	if id := logging.UserIDFromContext(r.Context()); id != "" {
		return id
	}
	return preferences.AnonymousUser
}

// ownedSession resolves the {sessionID} URL parameter. Sessions of other
// users are reported as not found so ids cannot be probed.
func (h *Handler) ownedSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondDomainError(w, r, err)
		return nil, false
	}
	if s.UserID != userID(r) {
		logging.Ctx(r.Context()).Warn().Str("session_id", s.ID).Msg("Session belongs to another user")
		respondDomainError(w, r, session.ErrSessionNotFound)
		return nil, false
	}
	return s, true
}
