// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

/*
Package models defines the data shared by the catalog, the lifecycle core
and the HTTP API.

  - Catalog, URLGroup, URLEntry: the admin-managed set of dashboards. A
    Catalog is immutable once built; a reload produces a new one.
  - APIResponse, APIError, Metadata: the JSON envelope of every HTTP
    response and websocket error frame.
  - HealthStatus: the readiness report.
*/
package models
