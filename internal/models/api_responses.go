// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package models

import (
	"time"
)

// APIResponse is the envelope of every HTTP response.
//
// Status is "success" (see Data) or "error" (see Error).
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "PRECONDITION_VIOLATION",
//	    "message": "retry on \"plex\" rejected: status loading not in {error}",
//	    "details": {"operation": "retry", "id": "plex", "status": "loading"}
//	  },
//	  "metadata": {"timestamp": "2026-01-12T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata is attached to every response.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	// DurationMS is the handler time, set for lifecycle operations.
	DurationMS int64 `json:"duration_ms,omitempty"`
}

// APIError is a machine-readable error.
//
// Common error codes:
//   - VALIDATION_ERROR: malformed input
//   - PRECONDITION_VIOLATION: transition not allowed from the current status
//   - NOT_FOUND: unknown session or catalog entry
//   - UNAUTHORIZED: missing or invalid bearer token
//   - RATE_LIMIT_EXCEEDED: too many requests or events
//   - SESSION_LIMIT: too many open sessions
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements error so an APIError can travel through error returns.
func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}
