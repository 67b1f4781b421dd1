// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

// Package preferences persists per-user dashboard preferences in BadgerDB:
// the last active entry (used as the initial selection of a new session)
// and the preferred viewport mode.
//
// Lifecycle state is never stored here; it lives only as long as its session.
package preferences
