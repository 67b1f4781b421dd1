// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

// Package logging provides the zerolog-based structured logger used across
// Framedeck.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json", Timestamp: true})
//
//	logging.Info().Int("port", cfg.Server.Port).Msg("Server starting")
//	logging.Ctx(ctx).Warn().Str("entry_id", id).Msg("Rejected unload")
//
// Components build child loggers once and keep them:
//
//	log := logging.WithComponent("lifecycle")
//
// # Configuration
//
// LOG_LEVEL, LOG_FORMAT and LOG_CALLER are read by the config package and
// passed to Init.
//
// # Context Fields
//
// The API middleware stores request_id on the request context; handlers add
// session_id and user_id once known. Ctx and CtxWith read them back, and the
// slog adapter does the same for records coming from suture.
//
// # Security Logging
//
// SecurityLogger records bearer token outcomes with user IDs masked and
// credential-looking error text replaced.
//
// # Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
package logging
