// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

/*
Package middleware provides chi-compatible HTTP middleware used by the API
router alongside the authentication middleware in internal/auth.

Key Components:

  - RequestID: request id tracking, reusing well-formed upstream X-Request-ID
    headers and populating the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled by
    chi route pattern
  - Compression: gzip for clients that accept it, skipped for WebSocket
    upgrades

Middleware Stack:

The router in internal/api applies them in this order:

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression)

PrometheusMetrics reads the route pattern after the handler returns, so it
must wrap the router rather than an individual handler. Its response writer
implements http.Hijacker so WebSocket upgrades work through it.
*/
package middleware
