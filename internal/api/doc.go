// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

/*
Package api provides the HTTP layer of Framedeck: a chi router, the session
and preference handlers, and the websocket upgrade.

Every response uses the models.APIResponse envelope:

	{"status": "success", "data": {...}, "metadata": {"timestamp": "..."}}
	{"status": "error", "error": {"code": "NOT_FOUND", "message": "..."}, "metadata": {...}}

Routes:

	GET    /api/v1/health/live
	GET    /api/v1/health/ready
	GET    /api/v1/groups
	POST   /api/v1/sessions                                  {viewport, active_id}
	GET    /api/v1/sessions/{sessionID}
	DELETE /api/v1/sessions/{sessionID}
	PUT    /api/v1/sessions/{sessionID}/viewport             {mode}
	POST   /api/v1/sessions/{sessionID}/entries/{entryID}/select
	POST   /api/v1/sessions/{sessionID}/entries/{entryID}/load
	POST   /api/v1/sessions/{sessionID}/entries/{entryID}/retry
	POST   /api/v1/sessions/{sessionID}/entries/{entryID}/unload[?force=true]
	POST   /api/v1/sessions/{sessionID}/entries/{entryID}/reset
	POST   /api/v1/sessions/{sessionID}/entries/{entryID}/activity
	POST   /api/v1/sessions/{sessionID}/entries/{entryID}/report  {generation, ok, message}
	GET    /api/v1/sessions/{sessionID}/ws
	GET    /api/v1/preferences
	PUT    /api/v1/preferences                               {last_active_id, viewport}
	GET    /metrics

Status codes:

  - 400 VALIDATION_ERROR: malformed body or event
  - 401 UNAUTHORIZED: missing or invalid bearer token (jwt mode)
  - 404 NOT_FOUND: unknown session, another user's session, or unknown entry
  - 409 PRECONDITION_VIOLATION: transition not allowed from the entry's status
  - 429 RATE_LIMIT_EXCEEDED
  - 503 SESSION_LIMIT or SERVICE_UNAVAILABLE

Sessions belong to the user that created them. With authentication disabled
every request acts as the anonymous user.

Middleware order:

	RequestID -> RealIP -> PrometheusMetrics -> Recoverer -> CORS
	  -> SecurityHeaders -> Authenticate -> RateLimit -> Compression

The websocket route skips Compression and has its own upgrade limiter.
*/
package api
