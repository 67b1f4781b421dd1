// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/framedeck/internal/auth"
	"github.com/tomtom215/framedeck/internal/catalog"
	"github.com/tomtom215/framedeck/internal/config"
	"github.com/tomtom215/framedeck/internal/lifecycle"
	"github.com/tomtom215/framedeck/internal/logging"
	"github.com/tomtom215/framedeck/internal/models"
	"github.com/tomtom215/framedeck/internal/preferences"
	"github.com/tomtom215/framedeck/internal/session"
	ws "github.com/tomtom215/framedeck/internal/websocket"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "error",
		Format: "console",
		Output: io.Discard,
	})
}

const (
	testOrigin = "https://portal.example.com"
	testSecret = "test-secret-that-is-long-enough-for-hs256-signing"
)

func testCatalog() *models.Catalog {
	return models.NewCatalog(5*time.Minute, []models.URLGroup{
		{
			ID:   "monitoring",
			Name: "Monitoring",
			Entries: []models.URLEntry{
				{ID: "grafana", Title: "Grafana", URL: "https://grafana.example.com", MobileURL: "https://grafana.example.com/m"},
				{ID: "kibana", Title: "Kibana", URL: "https://kibana.example.com"},
			},
		},
		{
			ID:   "media",
			Name: "Media",
			Entries: []models.URLEntry{
				{ID: "plex", Title: "Plex", URL: "https://plex.example.com"},
			},
		},
	})
}

// testEnv is the full router over real sessions, an in-memory preference
// store and a running websocket hub.
type testEnv struct {
	cfg      *config.Config
	manager  *session.Manager
	prefs    *preferences.BadgerStore
	hub      *ws.Hub
	handler  http.Handler
	jwt      *auth.JWTManager
	catalogs *catalog.Store
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Security: config.SecurityConfig{
			AuthMode:          auth.ModeNone,
			JWTSecret:         testSecret,
			RateLimitDisabled: true,
			CORSOrigins:       []string{testOrigin},
		},
	}
	if mutate != nil {
		mutate(cfg)
	}

	prefs, err := preferences.Open("", false)
	if err != nil {
		t.Fatalf("open prefs: %v", err)
	}
	t.Cleanup(func() { prefs.Close() })

	store := catalog.NewStore(testCatalog())
	manager := session.NewManager(session.Config{
		MaxSessions:     10,
		DefaultViewport: lifecycle.ViewportDesktop,
	}, store, prefs)
	store.Subscribe(manager)

	hub := ws.NewHub(manager, ws.Config{})
	manager.SetBroadcaster(hub)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	authMw, err := auth.NewMiddleware(&cfg.Security)
	if err != nil {
		t.Fatalf("NewMiddleware: %v", err)
	}
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	h := NewHandler(cfg, manager, store, prefs, hub, "test")
	router := NewRouter(h, authMw, NewChiMiddlewareFromConfig(&cfg.Security))

	return &testEnv{
		cfg:      cfg,
		manager:  manager,
		prefs:    prefs,
		hub:      hub,
		handler:  router.SetupChi(),
		jwt:      jwtManager,
		catalogs: store,
	}
}

// envelope mirrors models.APIResponse with the data left raw.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

type request struct {
	method string
	path   string
	body   interface{}
	token  string
}

func (e *testEnv) do(t *testing.T, req request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var body io.Reader
	switch b := req.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		body = bytes.NewReader(data)
	}

	r := httptest.NewRequest(req.method, req.path, body)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, r)

	var env envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s response %q: %v", req.method, req.path, rec.Body.String(), err)
		}
	}
	return rec, env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func (e *testEnv) createSession(t *testing.T, body interface{}, token string) lifecycle.Snapshot {
	t.Helper()
	rec, env := e.do(t, request{method: http.MethodPost, path: "/api/v1/sessions", body: body, token: token})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var snap lifecycle.Snapshot
	decodeData(t, env, &snap)
	if snap.SessionID == "" {
		t.Fatal("snapshot has no session id")
	}
	return snap
}

func (e *testEnv) token(t *testing.T, subject string) string {
	t.Helper()
	tok, err := e.jwt.GenerateToken(subject, subject, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return tok
}

func entryPath(sessionID, entryID, action string) string {
	return "/api/v1/sessions/" + sessionID + "/entries/" + entryID + "/" + action
}
