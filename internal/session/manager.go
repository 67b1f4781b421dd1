// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/framedeck/internal/lifecycle"
	"github.com/tomtom215/framedeck/internal/logging"
	"github.com/tomtom215/framedeck/internal/metrics"
	"github.com/tomtom215/framedeck/internal/models"
	"github.com/tomtom215/framedeck/internal/preferences"
	"github.com/tomtom215/framedeck/internal/validation"
)

var (
	// ErrSessionNotFound is returned for unknown or reaped session ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionLimit is returned by Create when MaxSessions are open.
	ErrSessionLimit = errors.New("session limit reached")
)

// CatalogSource provides the catalog new sessions start with.
type CatalogSource interface {
	Current() *models.Catalog
}

// Broadcaster delivers a session's intents to its attached clients. It is
// called while the session's controller lock is held and must not block or
// call back into the session.
type Broadcaster interface {
	BroadcastIntents(sessionID string, intents []lifecycle.Intent)
}

// Config tunes the Manager.
type Config struct {
	PoolCapacity    int
	DefaultViewport lifecycle.ViewportMode
	Strict          bool
	IdleTTL         time.Duration
	MaxSessions     int
	Clock           lifecycle.Clock
}

// CreateOptions describe a new session.
type CreateOptions struct {
	UserID string
	// Viewport overrides the user's stored preference and the default.
	Viewport lifecycle.ViewportMode
	// ActiveID (a deep link) overrides the user's last active entry.
	ActiveID string
}

// Manager owns every open session.
type Manager struct {
	cfg     Config
	catalog CatalogSource
	prefs   preferences.Store

	bmu         sync.RWMutex
	broadcaster Broadcaster

	mu       sync.RWMutex
	sessions map[string]*Session

	logger zerolog.Logger
}

// NewManager creates a Manager. prefs may be nil, in which case nothing is
// remembered between sessions.
func NewManager(cfg Config, source CatalogSource, prefs preferences.Store) *Manager {
	if cfg.Clock == nil {
		cfg.Clock = lifecycle.SystemClock{}
	}
	if cfg.DefaultViewport == "" {
		cfg.DefaultViewport = lifecycle.ViewportDesktop
	}
	return &Manager{
		cfg:      cfg,
		catalog:  source,
		prefs:    prefs,
		sessions: make(map[string]*Session),
		logger:   logging.WithComponent("session"),
	}
}

// SetBroadcaster installs b for intents of existing and future sessions.
func (m *Manager) SetBroadcaster(b Broadcaster) {
	m.bmu.Lock()
	defer m.bmu.Unlock()
	m.broadcaster = b
}

func (m *Manager) sinkFor(sessionID string) lifecycle.IntentSink {
	return lifecycle.IntentSinkFunc(func(intents []lifecycle.Intent) {
		m.bmu.RLock()
		b := m.broadcaster
		m.bmu.RUnlock()
		if b != nil {
			b.BroadcastIntents(sessionID, intents)
		}
	})
}

// Create opens a session and returns it with its initial snapshot.
func (m *Manager) Create(ctx context.Context, opts CreateOptions) (*Session, lifecycle.Snapshot, error) {
	if opts.UserID == "" {
		opts.UserID = preferences.AnonymousUser
	}

	viewport, activeID := m.cfg.DefaultViewport, opts.ActiveID
	if m.prefs != nil {
		p, err := m.prefs.Get(ctx, opts.UserID)
		switch {
		case err == nil:
			if mode, perr := lifecycle.ParseViewportMode(p.Viewport); perr == nil && p.Viewport != "" {
				viewport = mode
			}
			if activeID == "" {
				activeID = p.LastActiveID
			}
		case !errors.Is(err, preferences.ErrPreferenceNotFound):
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to read preferences, using defaults")
		}
	}
	if opts.Viewport != "" {
		viewport = opts.Viewport
	}

	m.mu.Lock()
	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		m.mu.Unlock()
		return nil, lifecycle.Snapshot{}, ErrSessionLimit
	}
	id := uuid.NewString()
	now := m.cfg.Clock.Now()
	s := &Session{ID: id, UserID: opts.UserID, CreatedAt: now}
	s.touch(now)
	// A stale preference or deep link may name a removed entry; the
	// controller ignores initial ids outside the catalog.
	s.controller = lifecycle.NewController(m.catalog.Current(), lifecycle.Config{
		SessionID:       id,
		PoolCapacity:    m.cfg.PoolCapacity,
		Viewport:        viewport,
		InitialActiveID: activeID,
		Strict:          m.cfg.Strict,
		Clock:           m.cfg.Clock,
		Sink:            m.sinkFor(id),
	})
	m.sessions[id] = s
	count := len(m.sessions)
	m.mu.Unlock()

	metrics.SessionsCreated.Inc()
	metrics.SessionsActive.Set(float64(count))
	logging.Ctx(ctx).Info().
		Str("session_id", id).
		Str("viewport", string(viewport)).
		Str("active_id", s.controller.ActiveID()).
		Msg("Session created")

	return s, s.controller.Snapshot(), nil
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Delete closes the session. Its lifecycle state is discarded.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	metrics.SessionsActive.Set(float64(count))
	m.logger.Info().Str("session_id", id).Msg("Session closed")
	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Snapshot returns the projection of a session.
func (m *Manager) Snapshot(id string) (lifecycle.Snapshot, error) {
	s, err := m.Get(id)
	if err != nil {
		return lifecycle.Snapshot{}, err
	}
	return s.controller.Snapshot(), nil
}

// Dispatch validates ev and applies it to the session. Entry ids outside the
// session's catalog are rejected with lifecycle.ErrUnknownEntry. The
// controller repeats the check under its own lock, so a catalog reload
// between the two never reaches the strict panic.
func (m *Manager) Dispatch(ctx context.Context, sessionID string, ev lifecycle.Event) (lifecycle.DispatchResult, error) {
	if verr := validation.ValidateStruct(&ev); verr != nil {
		return lifecycle.DispatchResult{}, verr
	}
	s, err := m.Get(sessionID)
	if err != nil {
		return lifecycle.DispatchResult{}, err
	}
	s.touch(m.cfg.Clock.Now())

	ctrl := s.controller
	if ev.Type != lifecycle.EventViewport && ev.ID != "" && !ctrl.Catalog().Has(ev.ID) {
		return lifecycle.DispatchResult{}, fmt.Errorf("%w: %s", lifecycle.ErrUnknownEntry, ev.ID)
	}

	res, err := ctrl.Dispatch(ev)
	if err != nil {
		return res, err
	}

	m.remember(ctx, s, ev)
	return res, nil
}

// remember persists preference-worthy events. Failures are logged:
// a preference write must never fail a user action.
func (m *Manager) remember(ctx context.Context, s *Session, ev lifecycle.Event) {
	if m.prefs == nil {
		return
	}
	var err error
	switch ev.Type {
	case lifecycle.EventSelect:
		err = m.prefs.SetLastActive(ctx, s.UserID, ev.ID)
	case lifecycle.EventViewport:
		err = m.prefs.SetViewport(ctx, s.UserID, string(ev.Viewport))
	default:
		return
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("event", string(ev.Type)).Msg("Failed to save preference")
	}
}

// Attach marks a client as connected to the session.
func (m *Manager) Attach(id string) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	s.clients.Add(1)
	s.touch(m.cfg.Clock.Now())
	return s, nil
}

// Detach marks a client as gone. The idle TTL starts counting from here.
func (m *Manager) Detach(id string) {
	s, err := m.Get(id)
	if err != nil {
		return
	}
	if s.clients.Add(-1) < 0 {
		s.clients.Store(0)
	}
	s.touch(m.cfg.Clock.Now())
}

// SetCatalog pushes a reloaded catalog into every session. It implements
// catalog.Subscriber.
func (m *Manager) SetCatalog(c *models.Catalog) {
	for _, s := range m.list() {
		s.controller.SetCatalog(c)
	}
	m.logger.Info().Int("sessions", m.Len()).Int("entries", c.Len()).Msg("Catalog applied to sessions")
}

// SweepResult summarizes one Tick.
type SweepResult struct {
	Sessions  int
	Evictions int
	Mounted   int
}

// Tick runs the pool manager sweep of every session at now.
func (m *Manager) Tick(now time.Time) SweepResult {
	var res SweepResult
	for _, s := range m.list() {
		res.Sessions++
		res.Evictions += len(s.controller.Tick(now))
		res.Mounted += s.controller.MountedCount()
	}
	metrics.LifecycleMountedEntries.Set(float64(res.Mounted))
	return res
}

// ReapIdle closes sessions with no clients that were not touched within
// the idle TTL. It returns the closed ids, sorted.
func (m *Manager) ReapIdle(now time.Time) []string {
	if m.cfg.IdleTTL <= 0 {
		return nil
	}
	var reaped []string
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idle(now, m.cfg.IdleTTL) {
			delete(m.sessions, id)
			reaped = append(reaped, id)
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if len(reaped) == 0 {
		return nil
	}
	sort.Strings(reaped)
	metrics.SessionsReaped.Add(float64(len(reaped)))
	metrics.SessionsActive.Set(float64(count))
	m.logger.Info().Int("reaped", len(reaped)).Int("remaining", count).Msg("Reaped idle sessions")
	return reaped
}

func (m *Manager) list() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}
