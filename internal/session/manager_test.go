// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/framedeck/internal/lifecycle"
	"github.com/tomtom215/framedeck/internal/metrics"
	"github.com/tomtom215/framedeck/internal/models"
	"github.com/tomtom215/framedeck/internal/preferences"
	"github.com/tomtom215/framedeck/internal/validation"
)

type staticCatalog struct{ c *models.Catalog }

func (s staticCatalog) Current() *models.Catalog { return s.c }

type recordingBroadcaster struct {
	mu   sync.Mutex
	sent map[string][]lifecycle.Intent
}

func (r *recordingBroadcaster) BroadcastIntents(sessionID string, intents []lifecycle.Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent == nil {
		r.sent = make(map[string][]lifecycle.Intent)
	}
	r.sent[sessionID] = append(r.sent[sessionID], intents...)
}

func (r *recordingBroadcaster) kinds(sessionID string) []lifecycle.IntentKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]lifecycle.IntentKind, 0, len(r.sent[sessionID]))
	for _, in := range r.sent[sessionID] {
		out = append(out, in.Kind)
	}
	return out
}

func dur(d time.Duration) *time.Duration { return &d }

func testCatalog() *models.Catalog {
	return models.NewCatalog(time.Minute, []models.URLGroup{{
		ID:   "main",
		Name: "Main",
		Entries: []models.URLEntry{
			{ID: "a", Title: "A", URL: "https://a.example.com", MobileURL: "https://m.a.example.com", IdleTimeout: dur(time.Second)},
			{ID: "b", Title: "B", URL: "https://b.example.com", IdleTimeout: dur(0)},
			{ID: "c", Title: "C", URL: "https://c.example.com"},
		},
	}})
}

type fixture struct {
	m     *Manager
	clock *lifecycle.ManualClock
	bc    *recordingBroadcaster
	prefs *preferences.BadgerStore
}

func newFixture(t *testing.T, mutate func(*Config)) *fixture {
	t.Helper()
	prefs, err := preferences.Open("", false)
	if err != nil {
		t.Fatalf("open prefs: %v", err)
	}
	t.Cleanup(func() { prefs.Close() })

	clock := lifecycle.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	cfg := Config{
		Strict:      true,
		IdleTTL:     10 * time.Minute,
		MaxSessions: 10,
		Clock:       clock,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	m := NewManager(cfg, staticCatalog{testCatalog()}, prefs)
	bc := &recordingBroadcaster{}
	m.SetBroadcaster(bc)
	return &fixture{m: m, clock: clock, bc: bc, prefs: prefs}
}

func (f *fixture) create(t *testing.T, opts CreateOptions) *Session {
	t.Helper()
	s, _, err := f.m.Create(context.Background(), opts)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return s
}

func (f *fixture) dispatch(t *testing.T, sid string, ev lifecycle.Event) lifecycle.DispatchResult {
	t.Helper()
	res, err := f.m.Dispatch(context.Background(), sid, ev)
	if err != nil {
		t.Fatalf("Dispatch(%+v) error = %v", ev, err)
	}
	return res
}

func TestManager_CreateDefaults(t *testing.T) {
	f := newFixture(t, nil)
	before := testutil.ToFloat64(metrics.SessionsCreated)

	s, snap, err := f.m.Create(context.Background(), CreateOptions{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if s.ID == "" || snap.SessionID != s.ID {
		t.Errorf("session id %q, snapshot id %q", s.ID, snap.SessionID)
	}
	if s.UserID != preferences.AnonymousUser {
		t.Errorf("UserID = %q", s.UserID)
	}
	if snap.Viewport != lifecycle.ViewportDesktop || snap.ActiveID != "" || len(snap.Entries) != 3 {
		t.Errorf("snapshot = %+v", snap)
	}
	if got := testutil.ToFloat64(metrics.SessionsCreated); got != before+1 {
		t.Errorf("SessionsCreated = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(metrics.SessionsActive); got != 1 {
		t.Errorf("SessionsActive = %v, want 1", got)
	}
}

func TestManager_CreateFromPreferences(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	if err := f.prefs.Put(ctx, &preferences.Preferences{UserID: "alice", LastActiveID: "b", Viewport: "mobile"}); err != nil {
		t.Fatal(err)
	}

	_, snap, err := f.m.Create(ctx, CreateOptions{UserID: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	if snap.ActiveID != "b" || snap.Viewport != lifecycle.ViewportMobile {
		t.Errorf("snapshot active=%q viewport=%q", snap.ActiveID, snap.Viewport)
	}
	if e, _ := snap.Entry("b"); e.Status != lifecycle.StatusLoading || !e.Visible {
		t.Errorf("entry b = %+v", e)
	}

	// Deep link and explicit viewport win over stored preferences.
	_, snap, err = f.m.Create(ctx, CreateOptions{UserID: "alice", ActiveID: "a", Viewport: lifecycle.ViewportDesktop})
	if err != nil {
		t.Fatal(err)
	}
	if snap.ActiveID != "a" || snap.Viewport != lifecycle.ViewportDesktop {
		t.Errorf("snapshot active=%q viewport=%q", snap.ActiveID, snap.Viewport)
	}
}

func TestManager_CreateIgnoresRemovedPreference(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	if err := f.prefs.SetLastActive(ctx, "bob", "gone"); err != nil {
		t.Fatal(err)
	}
	_, snap, err := f.m.Create(ctx, CreateOptions{UserID: "bob"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if snap.ActiveID != "" {
		t.Errorf("ActiveID = %q, want none", snap.ActiveID)
	}
}

func TestManager_SessionLimit(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.MaxSessions = 1 })
	f.create(t, CreateOptions{})
	if _, _, err := f.m.Create(context.Background(), CreateOptions{}); !errors.Is(err, ErrSessionLimit) {
		t.Fatalf("Create() error = %v, want ErrSessionLimit", err)
	}
}

func TestManager_DispatchErrors(t *testing.T) {
	f := newFixture(t, nil)
	s := f.create(t, CreateOptions{})
	ctx := context.Background()

	tests := []struct {
		name    string
		sid     string
		ev      lifecycle.Event
		check   func(error) bool
		errName string
	}{
		{
			name:    "unknown session",
			sid:     "missing",
			ev:      lifecycle.Event{Type: lifecycle.EventSelect, ID: "a"},
			check:   func(err error) bool { return errors.Is(err, ErrSessionNotFound) },
			errName: "ErrSessionNotFound",
		},
		{
			name:    "unknown entry does not reach strict controller",
			sid:     s.ID,
			ev:      lifecycle.Event{Type: lifecycle.EventLoad, ID: "nope"},
			check:   func(err error) bool { return errors.Is(err, lifecycle.ErrUnknownEntry) },
			errName: "ErrUnknownEntry",
		},
		{
			name: "invalid event type",
			sid:  s.ID,
			ev:   lifecycle.Event{Type: "explode", ID: "a"},
			check: func(err error) bool {
				var verr *validation.RequestValidationError
				return errors.As(err, &verr)
			},
			errName: "RequestValidationError",
		},
		{
			name: "invalid viewport",
			sid:  s.ID,
			ev:   lifecycle.Event{Type: lifecycle.EventViewport, Viewport: "tablet"},
			check: func(err error) bool {
				var verr *validation.RequestValidationError
				return errors.As(err, &verr)
			},
			errName: "RequestValidationError",
		},
		{
			name:    "unload of the active entry",
			sid:     s.ID,
			ev:      lifecycle.Event{Type: lifecycle.EventUnload, ID: "a"},
			check:   func(err error) bool { return errors.Is(err, lifecycle.ErrPreconditionViolation) },
			errName: "ErrPreconditionViolation",
		},
	}

	f.dispatch(t, s.ID, lifecycle.Event{Type: lifecycle.EventSelect, ID: "a"})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.m.Dispatch(ctx, tt.sid, tt.ev)
			if err == nil || !tt.check(err) {
				t.Fatalf("Dispatch() error = %v, want %s", err, tt.errName)
			}
		})
	}
	if got := s.Controller().ActiveID(); got != "a" {
		t.Errorf("ActiveID = %q after rejected events", got)
	}
}

func TestManager_DispatchRoutesIntents(t *testing.T) {
	f := newFixture(t, nil)
	s1 := f.create(t, CreateOptions{})
	s2 := f.create(t, CreateOptions{})

	f.dispatch(t, s1.ID, lifecycle.Event{Type: lifecycle.EventSelect, ID: "a"})

	got := f.bc.kinds(s1.ID)
	if len(got) != 2 || got[0] != lifecycle.IntentMount || got[1] != lifecycle.IntentShow {
		t.Errorf("session 1 intents = %v, want [mount show]", got)
	}
	if len(f.bc.kinds(s2.ID)) != 0 {
		t.Errorf("session 2 received intents: %v", f.bc.kinds(s2.ID))
	}
}

func TestManager_DispatchRemembersPreferences(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	s := f.create(t, CreateOptions{UserID: "carol"})

	f.dispatch(t, s.ID, lifecycle.Event{Type: lifecycle.EventSelect, ID: "c"})
	f.dispatch(t, s.ID, lifecycle.Event{Type: lifecycle.EventViewport, Viewport: lifecycle.ViewportMobile})

	p, err := f.prefs.Get(ctx, "carol")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.LastActiveID != "c" || p.Viewport != "mobile" {
		t.Errorf("preferences = %+v", p)
	}
	if s.Controller().Viewport() != lifecycle.ViewportMobile {
		t.Errorf("Viewport = %q", s.Controller().Viewport())
	}
}

func TestManager_DispatchStaleReport(t *testing.T) {
	f := newFixture(t, nil)
	s := f.create(t, CreateOptions{})

	f.dispatch(t, s.ID, lifecycle.Event{Type: lifecycle.EventSelect, ID: "a"})
	st, _ := s.Controller().State("a")
	f.dispatch(t, s.ID, lifecycle.Event{Type: lifecycle.EventReset, ID: "a"})

	res := f.dispatch(t, s.ID, lifecycle.Event{Type: lifecycle.EventLoaded, ID: "a", Generation: st.Generation})
	if !res.Stale {
		t.Error("report for superseded generation should be stale")
	}
	if got := s.Controller().Status("a"); got != lifecycle.StatusLoading {
		t.Errorf("Status(a) = %q, want loading", got)
	}
}

func TestManager_TickAndSweep(t *testing.T) {
	f := newFixture(t, nil)
	s := f.create(t, CreateOptions{})

	f.dispatch(t, s.ID, lifecycle.Event{Type: lifecycle.EventSelect, ID: "a"})
	f.dispatch(t, s.ID, lifecycle.Event{Type: lifecycle.EventLoaded, ID: "a"})
	f.dispatch(t, s.ID, lifecycle.Event{Type: lifecycle.EventSelect, ID: "b"})
	f.dispatch(t, s.ID, lifecycle.Event{Type: lifecycle.EventLoaded, ID: "b"})

	f.clock.Advance(2 * time.Second)
	sweeper := NewSweeper(f.m, time.Second, f.clock)
	res := sweeper.Sweep()

	if res.Sessions != 1 || res.Evictions != 1 || res.Mounted != 1 {
		t.Errorf("Sweep() = %+v, want 1 session, 1 eviction, 1 mounted", res)
	}
	if got := s.Controller().Status("a"); got != lifecycle.StatusUnloaded {
		t.Errorf("Status(a) = %q, want unloaded", got)
	}
	if got := s.Controller().Status("b"); got != lifecycle.StatusLoaded {
		t.Errorf("Status(b) = %q, want loaded", got)
	}
	if got := testutil.ToFloat64(metrics.LifecycleMountedEntries); got != 1 {
		t.Errorf("LifecycleMountedEntries = %v", got)
	}
}

func TestManager_ReapIdle(t *testing.T) {
	f := newFixture(t, nil)
	attached := f.create(t, CreateOptions{})
	detached := f.create(t, CreateOptions{})
	fresh := f.create(t, CreateOptions{})

	if _, err := f.m.Attach(attached.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.m.Attach(detached.ID); err != nil {
		t.Fatal(err)
	}
	f.m.Detach(detached.ID)

	f.clock.Advance(9 * time.Minute)
	// Touching fresh keeps it alive past the first TTL boundary.
	f.dispatch(t, fresh.ID, lifecycle.Event{Type: lifecycle.EventSelect, ID: "b"})
	f.clock.Advance(2 * time.Minute)

	reaped := f.m.ReapIdle(f.clock.Now())
	if len(reaped) != 1 || reaped[0] != detached.ID {
		t.Fatalf("ReapIdle() = %v, want [%s]", reaped, detached.ID)
	}
	if _, err := f.m.Get(detached.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get(reaped) error = %v", err)
	}
	if f.m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", f.m.Len())
	}
	if attached.Clients() != 1 {
		t.Errorf("Clients() = %d", attached.Clients())
	}
}

func TestManager_DetachNeverNegative(t *testing.T) {
	f := newFixture(t, nil)
	s := f.create(t, CreateOptions{})
	f.m.Detach(s.ID)
	f.m.Detach(s.ID)
	f.m.Detach("missing")
	if s.Clients() != 0 {
		t.Errorf("Clients() = %d", s.Clients())
	}
}

func TestManager_Delete(t *testing.T) {
	f := newFixture(t, nil)
	s := f.create(t, CreateOptions{})
	if err := f.m.Delete(s.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.m.Delete(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}
	if _, err := f.m.Snapshot(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Snapshot() error = %v", err)
	}
}

func TestManager_SetCatalog(t *testing.T) {
	f := newFixture(t, nil)
	s1 := f.create(t, CreateOptions{})
	s2 := f.create(t, CreateOptions{})
	f.dispatch(t, s1.ID, lifecycle.Event{Type: lifecycle.EventSelect, ID: "c"})
	f.dispatch(t, s2.ID, lifecycle.Event{Type: lifecycle.EventLoad, ID: "c"})

	next := models.NewCatalog(time.Minute, []models.URLGroup{{
		ID:      "main",
		Entries: []models.URLEntry{{ID: "a", URL: "https://a.example.com"}},
	}})
	f.m.SetCatalog(next)

	for _, s := range []*Session{s1, s2} {
		if _, tracked := s.Controller().State("c"); tracked {
			t.Errorf("session %s still tracks removed entry", s.ID)
		}
		if s.Controller().ActiveID() != "" {
			t.Errorf("session %s active = %q", s.ID, s.Controller().ActiveID())
		}
	}
	if _, err := f.m.Dispatch(context.Background(), s1.ID, lifecycle.Event{Type: lifecycle.EventSelect, ID: "c"}); !errors.Is(err, lifecycle.ErrUnknownEntry) {
		t.Errorf("Dispatch(removed) error = %v", err)
	}
}
