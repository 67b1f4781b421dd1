// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

/*
Package auth verifies the bearer tokens that front the Framedeck API.

Framedeck does not log users in. It sits behind the portal's identity
provider and only verifies HS256 JWTs signed with the shared JWT_SECRET.
The token subject becomes the user id that keys stored preferences.

Authentication Modes (AUTH_MODE):

  - jwt (default): a valid token is required on every /api/v1 route and on /ws
  - none: no checks, every request acts as the anonymous user; refused in production

Token Sources, in order:

  - Authorization: Bearer <token>
  - token cookie
  - token query parameter (WebSocket upgrades, where browsers cannot set headers)

Usage:

	authMW, err := auth.NewMiddleware(&cfg.Security)
	if err != nil {
	    return err
	}
	r.Group(func(r chi.Router) {
	    r.Use(authMW.Authenticate)
	    r.Get("/api/v1/catalog", h.Catalog)
	})

Rejections are logged through logging.SecurityLogger and counted in
framedeck_auth_token_validations_total.
*/
package auth
