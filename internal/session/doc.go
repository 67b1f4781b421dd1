// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

/*
Package session owns the per-tab lifecycle controllers.

A session is one open dashboard. Manager creates a lifecycle.Controller for
it, seeded with the current catalog, the user's last active entry and the
requested viewport. Every inbound event for the session goes through
Manager.Dispatch, which resolves the session and rejects entry ids outside
the catalog before the controller sees them. Intents the controller emits are
handed to the Broadcaster, normally the websocket hub.

Sweeper is the activity clock: a suture service that ticks every controller
on a fixed interval and reaps sessions nobody has touched for the idle TTL.
*/
package session
