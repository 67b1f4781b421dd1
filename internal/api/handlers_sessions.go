// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/framedeck/internal/lifecycle"
	"github.com/tomtom215/framedeck/internal/logging"
	"github.com/tomtom215/framedeck/internal/models"
	"github.com/tomtom215/framedeck/internal/session"
	ws "github.com/tomtom215/framedeck/internal/websocket"
)

// registerTimeout bounds the wait for the hub to accept a new client.
const registerTimeout = 10 * time.Second

// CreateSession opens a session and returns its initial snapshot.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	s, snap, err := h.sessions.Create(r.Context(), session.CreateOptions{
		UserID:   userID(r),
		Viewport: lifecycle.ViewportMode(req.Viewport),
		ActiveID: req.ActiveID,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/sessions/"+s.ID)
	respondSuccess(w, r, http.StatusCreated, snap)
}

// GetSession returns the session's snapshot.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	respondSuccess(w, r, http.StatusOK, s.Controller().Snapshot())
}

// DeleteSession closes a session and disconnects its websocket clients.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	if err := h.sessions.Delete(s.ID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	if h.wsHub != nil {
		h.wsHub.CloseSession(s.ID)
	}
	respondSuccess(w, r, http.StatusOK, map[string]string{"session_id": s.ID})
}

// EntryAction returns a handler applying a user action of type ev to the
// {entryID} entry. unload?force=true becomes a force-unload.
func (h *Handler) EntryAction(ev lifecycle.EventType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event := lifecycle.Event{Type: ev, ID: chi.URLParam(r, "entryID")}
		if ev == lifecycle.EventUnload && getBoolParam(r, "force", false) {
			event.Type = lifecycle.EventForceUnload
		}
		h.dispatch(w, r, event)
	}
}

// ReportEntry records the outcome of a mount from the presentation layer.
// Reports for superseded attempts succeed with stale set.
func (h *Handler) ReportEntry(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	event := lifecycle.Event{
		Type:       lifecycle.EventLoaded,
		ID:         chi.URLParam(r, "entryID"),
		Generation: req.Generation,
	}
	if !*req.OK {
		event.Type = lifecycle.EventLoadError
		event.Message = req.Message
	}
	h.dispatch(w, r, event)
}

// SetViewport switches the session between desktop and mobile addresses and
// returns the resulting snapshot.
func (h *Handler) SetViewport(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	var req ViewportRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx := logging.ContextWithSessionID(r.Context(), s.ID)
	event := lifecycle.Event{Type: lifecycle.EventViewport, Viewport: lifecycle.ViewportMode(req.Mode)}
	if _, err := h.sessions.Dispatch(ctx, s.ID, event); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, s.Controller().Snapshot())
}

// dispatch applies event to the owned session and responds with the
// resulting entry state.
func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, event lifecycle.Event) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	start := time.Now()
	ctx := logging.ContextWithSessionID(r.Context(), s.ID)
	res, err := h.sessions.Dispatch(ctx, s.ID, event)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   res,
		Metadata: models.Metadata{
			Timestamp:  time.Now().UTC(),
			RequestID:  logging.RequestIDFromContext(r.Context()),
			DurationMS: time.Since(start).Milliseconds(),
		},
	})
}

// WebSocket upgrades the connection and attaches it to the session. The hub
// sends the snapshot first, then the session's intents as they happen.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "WebSocket service unavailable", nil)
		return
	}
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(r.Context(), h.wsHub, conn, s.ID)
	select {
	case h.wsHub.Register <- client:
		client.Start()
	case <-time.After(registerTimeout):
		logging.Ctx(r.Context()).Error().Str("session_id", s.ID).Msg("WebSocket hub not accepting clients")
		_ = conn.Close() // best-effort cleanup
	}
}
