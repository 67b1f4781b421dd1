// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

/*
Package services adapts framedeck components that do not already speak
suture.Service.

  - HTTPServerService: runs an *http.Server, shutting it down gracefully
    within a timeout and closing it hard when that fails.
  - WebSocketHubService: runs websocket.Hub.RunWithContext.

session.Sweeper and catalog.Watcher implement Serve and String themselves
and are added to the tree directly.

Every wrapper counts its starts in supervisor_service_starts_total, so a
service stuck in a restart loop shows up on the metrics endpoint.
*/
package services
