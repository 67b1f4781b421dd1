// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/framedeck/internal/config"
	"github.com/tomtom215/framedeck/internal/lifecycle"
	"github.com/tomtom215/framedeck/internal/models"
	"github.com/tomtom215/framedeck/internal/preferences"
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, request{method: http.MethodGet, path: "/api/v1/health/live"})
	if rec.Code != http.StatusOK || resp.Status != "success" {
		t.Fatalf("live: status = %d, envelope = %+v", rec.Code, resp)
	}

	env.createSession(t, nil, "")
	rec, resp = env.do(t, request{method: http.MethodGet, path: "/api/v1/health/ready"})
	if rec.Code != http.StatusOK {
		t.Fatalf("ready: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var health models.HealthStatus
	decodeData(t, resp, &health)
	if health.Status != "healthy" || health.CatalogEntries != 3 || health.Sessions != 1 || !health.PreferencesHealthy {
		t.Errorf("health = %+v", health)
	}
	if health.Version != "test" {
		t.Errorf("version = %q, want test", health.Version)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing on health route")
	}
}

// brokenPrefs fails every read.
type brokenPrefs struct{ preferences.Store }

func (brokenPrefs) Get(context.Context, string) (*preferences.Preferences, error) {
	return nil, errors.New("disk on fire")
}

func TestHealthReady_PreferencesDown(t *testing.T) {
	env := newTestEnv(t, nil)
	h := NewHandler(env.cfg, env.manager, env.catalogs, brokenPrefs{}, env.hub, "test")

	rec := httptest.NewRecorder()
	h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var resp envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var health models.HealthStatus
	decodeData(t, resp, &health)
	if health.Status != "degraded" || health.PreferencesHealthy {
		t.Errorf("health = %+v", health)
	}
}

func TestPreferences_Disabled(t *testing.T) {
	env := newTestEnv(t, nil)
	h := NewHandler(env.cfg, env.manager, env.catalogs, nil, env.hub, "test")

	rec := httptest.NewRecorder()
	h.GetPreferences(rec, httptest.NewRequest(http.MethodGet, "/api/v1/preferences", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestGroups(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, request{method: http.MethodGet, path: "/api/v1/groups"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var groups GroupsResponse
	decodeData(t, resp, &groups)
	if len(groups.Groups) != 2 || groups.Groups[0].ID != "monitoring" || groups.Groups[1].Entries[0].ID != "plex" {
		t.Errorf("groups = %+v", groups.Groups)
	}
	if groups.DefaultIdleTimeout != "5m0s" {
		t.Errorf("default_idle_timeout = %q", groups.DefaultIdleTimeout)
	}
}

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name         string
		body         interface{}
		wantViewport lifecycle.ViewportMode
		wantActive   string
	}{
		{"empty body", nil, lifecycle.ViewportDesktop, ""},
		{"mobile", CreateSessionRequest{Viewport: "mobile"}, lifecycle.ViewportMobile, ""},
		{"deep link", CreateSessionRequest{ActiveID: "kibana"}, lifecycle.ViewportDesktop, "kibana"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			snap := env.createSession(t, tt.body, "")
			if snap.Viewport != tt.wantViewport {
				t.Errorf("viewport = %q, want %q", snap.Viewport, tt.wantViewport)
			}
			if snap.ActiveID != tt.wantActive {
				t.Errorf("active_id = %q, want %q", snap.ActiveID, tt.wantActive)
			}
			if len(snap.Entries) != 3 {
				t.Errorf("entries = %d, want 3", len(snap.Entries))
			}
		})
	}
}

func TestCreateSession_Invalid(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name string
		body interface{}
	}{
		{"bad viewport", CreateSessionRequest{Viewport: "tablet"}},
		{"bad id", CreateSessionRequest{ActiveID: "../etc"}},
		{"malformed json", "{"},
		{"unknown field", `{"viewport":"desktop","extra":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := env.do(t, request{method: http.MethodPost, path: "/api/v1/sessions", body: tt.body})
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("error = %+v", resp.Error)
			}
		})
	}
}

func TestCreateSession_Limit(t *testing.T) {
	env := newTestEnv(t, nil)
	for i := 0; i < 10; i++ {
		env.createSession(t, nil, "")
	}

	rec, resp := env.do(t, request{method: http.MethodPost, path: "/api/v1/sessions"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "SESSION_LIMIT" {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestEntryLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.createSession(t, nil, "").SessionID

	action := func(entryID, name string, body interface{}) lifecycle.DispatchResult {
		t.Helper()
		rec, resp := env.do(t, request{method: http.MethodPost, path: entryPath(sid, entryID, name), body: body})
		if rec.Code != http.StatusOK {
			t.Fatalf("%s %s: status = %d, body = %s", name, entryID, rec.Code, rec.Body.String())
		}
		var res lifecycle.DispatchResult
		decodeData(t, resp, &res)
		return res
	}
	ok, failed := true, false

	res := action("grafana", "select", nil)
	if res.State.Status != lifecycle.StatusLoading || res.State.Generation != 1 {
		t.Fatalf("select: state = %+v", res.State)
	}

	res = action("grafana", "report", ReportRequest{Generation: 1, OK: &ok})
	if res.State.Status != lifecycle.StatusLoaded || res.Stale {
		t.Fatalf("report ok: result = %+v", res)
	}

	res = action("kibana", "load", nil)
	if res.State.Status != lifecycle.StatusLoading {
		t.Fatalf("load: state = %+v", res.State)
	}
	res = action("kibana", "report", ReportRequest{OK: &failed, Message: "refused to connect"})
	if res.State.Status != lifecycle.StatusError || res.State.Error != "refused to connect" {
		t.Fatalf("report error: state = %+v", res.State)
	}
	res = action("kibana", "retry", nil)
	if res.State.Status != lifecycle.StatusLoading || res.State.RetryCount != 1 {
		t.Fatalf("retry: state = %+v", res.State)
	}

	res = action("kibana", "unload", nil)
	if res.State.Status != lifecycle.StatusUnloaded {
		t.Fatalf("unload: state = %+v", res.State)
	}
	res = action("kibana", "reset", nil)
	if res.State.Status != lifecycle.StatusLoading || res.State.RetryCount != 0 {
		t.Fatalf("reset: state = %+v", res.State)
	}

	action("grafana", "activity", nil)

	rec, resp := env.do(t, request{method: http.MethodGet, path: "/api/v1/sessions/" + sid})
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status = %d", rec.Code)
	}
	var snap lifecycle.Snapshot
	decodeData(t, resp, &snap)
	if snap.ActiveID != "grafana" {
		t.Errorf("active_id = %q, want grafana", snap.ActiveID)
	}
	view, _ := snap.Entry("grafana")
	if !view.Visible || !view.Mounted || view.Address != "https://grafana.example.com" {
		t.Errorf("grafana view = %+v", view)
	}

	res = action("grafana", "unload?force=true", nil)
	if res.State.Status != lifecycle.StatusUnloaded {
		t.Fatalf("force unload: state = %+v", res.State)
	}
	if snap, _ := env.manager.Snapshot(sid); snap.ActiveID != "" {
		t.Errorf("active_id after force unload = %q, want empty", snap.ActiveID)
	}
}

func TestEntryActionErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.createSession(t, CreateSessionRequest{ActiveID: "grafana"}, "").SessionID

	tests := []struct {
		name       string
		path       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{"unknown session", entryPath("nope", "grafana", "load"), nil, http.StatusNotFound, "NOT_FOUND"},
		{"unknown entry", entryPath(sid, "jenkins", "load"), nil, http.StatusNotFound, "NOT_FOUND"},
		{"retry unloaded", entryPath(sid, "plex", "retry"), nil, http.StatusConflict, "PRECONDITION_VIOLATION"},
		{"unload active", entryPath(sid, "grafana", "unload"), nil, http.StatusConflict, "PRECONDITION_VIOLATION"},
		{"report without ok", entryPath(sid, "grafana", "report"), `{"generation":1}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"report message too long", entryPath(sid, "grafana", "report"), map[string]interface{}{"ok": false, "message": strings.Repeat("x", 1025)}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown action", entryPath(sid, "grafana", "explode"), nil, http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := env.do(t, request{method: http.MethodPost, path: tt.path, body: tt.body})
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if resp.Status != "error" || resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("envelope = %+v, want code %s", resp, tt.wantCode)
			}
		})
	}

	t.Run("violation details", func(t *testing.T) {
		_, resp := env.do(t, request{method: http.MethodPost, path: entryPath(sid, "plex", "retry")})
		if resp.Error == nil {
			t.Fatal("expected error")
		}
		if resp.Error.Details["operation"] != string(lifecycle.OpRetry) || resp.Error.Details["id"] != "plex" || resp.Error.Details["status"] != "unloaded" {
			t.Errorf("details = %+v", resp.Error.Details)
		}
	})
}

func TestReportEntry_Stale(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.createSession(t, CreateSessionRequest{ActiveID: "grafana"}, "").SessionID
	ok := true

	rec, resp := env.do(t, request{method: http.MethodPost, path: entryPath(sid, "grafana", "report"), body: ReportRequest{Generation: 99, OK: &ok}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res lifecycle.DispatchResult
	decodeData(t, resp, &res)
	if !res.Stale || res.State.Status != lifecycle.StatusLoading {
		t.Errorf("result = %+v, want stale report leaving loading", res)
	}
}

func TestSetViewport(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.createSession(t, CreateSessionRequest{ActiveID: "grafana"}, "").SessionID
	path := "/api/v1/sessions/" + sid + "/viewport"

	rec, resp := env.do(t, request{method: http.MethodPut, path: path, body: ViewportRequest{Mode: "mobile"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var snap lifecycle.Snapshot
	decodeData(t, resp, &snap)
	if snap.Viewport != lifecycle.ViewportMobile {
		t.Errorf("viewport = %q", snap.Viewport)
	}
	if view, _ := snap.Entry("grafana"); view.Address != "https://grafana.example.com/m" {
		t.Errorf("grafana address = %q, want mobile url", view.Address)
	}

	rec, _ = env.do(t, request{method: http.MethodPut, path: path, body: ViewportRequest{Mode: "watch"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid mode status = %d, want 400", rec.Code)
	}

	prefs, err := env.prefs.Get(context.Background(), preferences.AnonymousUser)
	if err != nil {
		t.Fatalf("prefs.Get: %v", err)
	}
	if prefs.Viewport != "mobile" {
		t.Errorf("stored viewport = %q, want mobile", prefs.Viewport)
	}
}

func TestDeleteSession(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.createSession(t, nil, "").SessionID
	path := "/api/v1/sessions/" + sid

	rec, _ := env.do(t, request{method: http.MethodDelete, path: path})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec, _ = env.do(t, request{method: http.MethodGet, path: path})
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
	rec, _ = env.do(t, request{method: http.MethodDelete, path: path})
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestPreferences(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, request{method: http.MethodGet, path: "/api/v1/preferences"})
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var p preferences.Preferences
	decodeData(t, resp, &p)
	if p.UserID != preferences.AnonymousUser || p.LastActiveID != "" {
		t.Errorf("empty preferences = %+v", p)
	}

	rec, _ = env.do(t, request{method: http.MethodPut, path: "/api/v1/preferences", body: PreferencesRequest{LastActiveID: "plex", Viewport: "mobile"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", rec.Code, rec.Body.String())
	}

	snap := env.createSession(t, nil, "")
	if snap.ActiveID != "plex" || snap.Viewport != lifecycle.ViewportMobile {
		t.Errorf("session from preferences: active = %q viewport = %q", snap.ActiveID, snap.Viewport)
	}

	rec, resp = env.do(t, request{method: http.MethodPut, path: "/api/v1/preferences", body: PreferencesRequest{LastActiveID: "jenkins"}})
	if rec.Code != http.StatusBadRequest || resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("unknown entry: status = %d, error = %+v", rec.Code, resp.Error)
	}
}

func TestSelectRemembersLastActive(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.createSession(t, nil, "").SessionID

	rec, _ := env.do(t, request{method: http.MethodPost, path: entryPath(sid, "kibana", "select")})
	if rec.Code != http.StatusOK {
		t.Fatalf("select status = %d", rec.Code)
	}

	if snap := env.createSession(t, nil, ""); snap.ActiveID != "kibana" {
		t.Errorf("new session active_id = %q, want kibana", snap.ActiveID)
	}
}

func TestJWTAuthentication(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Security.AuthMode = "jwt"
	})

	rec, resp := env.do(t, request{method: http.MethodPost, path: "/api/v1/sessions"})
	if rec.Code != http.StatusUnauthorized || resp.Error == nil || resp.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("no token: status = %d, error = %+v", rec.Code, resp.Error)
	}

	rec, _ = env.do(t, request{method: http.MethodGet, path: "/api/v1/health/live"})
	if rec.Code != http.StatusOK {
		t.Errorf("health should not need a token, status = %d", rec.Code)
	}

	alice, bob := env.token(t, "alice"), env.token(t, "bob")
	sid := env.createSession(t, nil, alice).SessionID

	rec, _ = env.do(t, request{method: http.MethodGet, path: "/api/v1/sessions/" + sid, token: alice})
	if rec.Code != http.StatusOK {
		t.Errorf("owner get status = %d", rec.Code)
	}
	rec, _ = env.do(t, request{method: http.MethodGet, path: "/api/v1/sessions/" + sid, token: bob})
	if rec.Code != http.StatusNotFound {
		t.Errorf("other user get status = %d, want 404", rec.Code)
	}
	rec, _ = env.do(t, request{method: http.MethodDelete, path: "/api/v1/sessions/" + sid, token: bob})
	if rec.Code != http.StatusNotFound {
		t.Errorf("other user delete status = %d, want 404", rec.Code)
	}

	rec, _ = env.do(t, request{method: http.MethodPut, path: "/api/v1/preferences", body: PreferencesRequest{Viewport: "mobile"}, token: alice})
	if rec.Code != http.StatusOK {
		t.Fatalf("put prefs status = %d", rec.Code)
	}
	if p, err := env.prefs.Get(context.Background(), "alice"); err != nil || p.Viewport != "mobile" {
		t.Errorf("alice prefs = %+v, err = %v", p, err)
	}
}

func TestRoutingErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, request{method: http.MethodGet, path: "/api/v1/nothing-here"})
	if rec.Code != http.StatusNotFound || resp.Error == nil || resp.Error.Code != "NOT_FOUND" {
		t.Errorf("unknown route: status = %d, error = %+v", rec.Code, resp.Error)
	}

	rec, resp = env.do(t, request{method: http.MethodPatch, path: "/api/v1/groups"})
	if rec.Code != http.StatusMethodNotAllowed || resp.Error == nil || resp.Error.Code != "METHOD_NOT_ALLOWED" {
		t.Errorf("wrong method: status = %d, error = %+v", rec.Code, resp.Error)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, request{method: http.MethodGet, path: "/api/v1/groups"})

	rec, _ := env.do(t, request{method: http.MethodGet, path: "/metrics"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `api_requests_total{endpoint="/api/v1/groups"`) {
		t.Error("metrics output missing api_requests_total for /api/v1/groups")
	}
}
