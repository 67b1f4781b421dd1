// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/framedeck/internal/auth"
	"github.com/tomtom215/framedeck/internal/lifecycle"
	"github.com/tomtom215/framedeck/internal/middleware"
)

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	// PrometheusMetrics sits outside Recoverer so panics are counted as 500s.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	// ========================
	// Health Endpoints
	// ========================
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(auth.SecurityHeaders)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// ========================
	// Core API Endpoints
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.SecurityHeaders)
		r.Use(router.middleware.Authenticate)

		// The upgrade has its own limiter; the connection then carries
		// events under the per-client limiter.
		r.With(router.chiMiddleware.RateLimitWebSocket()).
			Get("/sessions/{sessionID}/ws", router.handler.WebSocket)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(middleware.Compression)

			r.Get("/groups", router.handler.Groups)

			r.Get("/preferences", router.handler.GetPreferences)
			r.Put("/preferences", router.handler.PutPreferences)

			r.With(router.chiMiddleware.RateLimitSessions()).
				Post("/sessions", router.handler.CreateSession)

			r.Route("/sessions/{sessionID}", func(r chi.Router) {
				r.Get("/", router.handler.GetSession)
				r.Delete("/", router.handler.DeleteSession)
				r.Put("/viewport", router.handler.SetViewport)

				r.Route("/entries/{entryID}", func(r chi.Router) {
					r.Post("/select", router.handler.EntryAction(lifecycle.EventSelect))
					r.Post("/load", router.handler.EntryAction(lifecycle.EventLoad))
					r.Post("/retry", router.handler.EntryAction(lifecycle.EventRetry))
					r.Post("/unload", router.handler.EntryAction(lifecycle.EventUnload))
					r.Post("/reset", router.handler.EntryAction(lifecycle.EventReset))
					r.Post("/activity", router.handler.EntryAction(lifecycle.EventActivity))
					r.Post("/report", router.handler.ReportEntry)
				})
			})
		})
	})

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	return r
}
