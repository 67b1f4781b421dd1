// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package session

import (
	"sync/atomic"
	"time"

	"github.com/tomtom215/framedeck/internal/lifecycle"
)

// Session is one open dashboard.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time

	controller *lifecycle.Controller

	// lastSeen is unix nanoseconds of the last event, attach or detach.
	lastSeen atomic.Int64
	clients  atomic.Int32
}

// Controller returns the session's lifecycle controller.
func (s *Session) Controller() *lifecycle.Controller {
	return s.controller
}

// LastSeen returns when the session was last touched.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Clients returns the number of attached websocket clients.
func (s *Session) Clients() int {
	return int(s.clients.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// idle reports whether the session has no clients and has not been touched
// within ttl.
func (s *Session) idle(now time.Time, ttl time.Duration) bool {
	return s.clients.Load() <= 0 && now.Sub(s.LastSeen()) >= ttl
}
