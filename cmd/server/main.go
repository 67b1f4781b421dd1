// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/framedeck/internal/api"
	"github.com/tomtom215/framedeck/internal/auth"
	"github.com/tomtom215/framedeck/internal/catalog"
	"github.com/tomtom215/framedeck/internal/config"
	"github.com/tomtom215/framedeck/internal/lifecycle"
	"github.com/tomtom215/framedeck/internal/logging"
	"github.com/tomtom215/framedeck/internal/metrics"
	"github.com/tomtom215/framedeck/internal/preferences"
	"github.com/tomtom215/framedeck/internal/session"
	"github.com/tomtom215/framedeck/internal/supervisor"
	"github.com/tomtom215/framedeck/internal/supervisor/services"
	ws "github.com/tomtom215/framedeck/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Framedeck failed")
	}
}

//nolint:gocyclo // sequential setup steps
func run() error {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	metrics.SetAppInfo(version)

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("catalog", cfg.Catalog.Path).
		Int("pool_capacity", cfg.Lifecycle.PoolCapacity).
		Bool("strict", cfg.StrictLifecycle()).
		Msg("Starting Framedeck")

	// Catalog. A broken file at startup is fatal; later reloads keep the
	// previous catalog instead.
	initial, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	metrics.RecordCatalogReload(initial.Len(), nil)
	store := catalog.NewStore(initial)
	logging.Info().Int("entries", initial.Len()).Int("groups", len(initial.Groups)).Msg("Catalog loaded")

	// Preferences
	prefs, err := preferences.Open(cfg.Preferences.Path, cfg.Preferences.SyncWrites)
	if err != nil {
		return err
	}
	defer func() {
		if err := prefs.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing preference store")
		}
	}()
	if cfg.Preferences.Path == "" {
		logging.Warn().Msg("Preferences are kept in memory (PREFERENCES_PATH is empty) and lost on restart")
	}

	// Sessions and the intent hub
	viewport, err := lifecycle.ParseViewportMode(cfg.Lifecycle.DefaultViewport)
	if err != nil {
		return fmt.Errorf("default viewport: %w", err)
	}
	manager := session.NewManager(session.Config{
		PoolCapacity:    cfg.Lifecycle.PoolCapacity,
		DefaultViewport: viewport,
		Strict:          cfg.StrictLifecycle(),
		IdleTTL:         cfg.Session.IdleTTL,
		MaxSessions:     cfg.Session.MaxSessions,
	}, store, prefs)
	store.Subscribe(manager)

	hub := ws.NewHub(manager, ws.Config{
		EventsPerSecond: cfg.WebSocket.EventsPerSecond,
		EventBurst:      cfg.WebSocket.EventBurst,
	})
	manager.SetBroadcaster(hub)

	// HTTP
	authMiddleware, err := auth.NewMiddleware(&cfg.Security)
	if err != nil {
		return fmt.Errorf("auth middleware: %w", err)
	}
	warnInsecureSettings(cfg)

	handler := api.NewHandler(cfg, manager, store, prefs, hub, version)
	router := api.NewRouter(handler, authMiddleware, api.NewChiMiddlewareFromConfig(&cfg.Security))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	// Supervisor tree
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	if cfg.Catalog.Watch {
		tree.AddDataService(catalog.NewWatcher(cfg.Catalog.Path, store))
	}
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(session.NewSweeper(manager, cfg.Lifecycle.SweepInterval, nil))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	err = tree.Serve(ctx)
	tree.LogUnstopped()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}

	logging.Info().Int("sessions", manager.Len()).Msg("Framedeck stopped gracefully")
	return nil
}

// warnInsecureSettings logs configurations that are valid but should not
// reach production.
func warnInsecureSettings(cfg *config.Config) {
	if cfg.Security.AuthMode == auth.ModeNone {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  Every visitor shares the anonymous user's preferences and")
		logging.Warn().Msg("  can open sessions. Use only behind an authenticating proxy.")
		logging.Warn().Msg("============================================================")
	}
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin while authentication is enabled; set CORS_ORIGINS")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if !cfg.Catalog.Watch {
		logging.Info().Msg("Catalog watching disabled; restart to pick up catalog changes")
	}
}
