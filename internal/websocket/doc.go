// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

/*
Package websocket connects browser tabs to their dashboard sessions.

The presentation layer owns the actual iframes. It learns what to do from
intents pushed over the socket and reports what happened (loaded, failed,
user activity) as events.

Architecture:

	   session.Manager ── BroadcastIntents ──▶ Hub ──▶ clients of that session
	          ▲                                         │
	          └──────────── Dispatch(event) ◀───────────┘

Each client has two goroutines:
  - readPump: decodes frames, rate limits events, dispatches them
  - writePump: writes queued messages and keepalive pings

Message Types:

Server to client:
  - snapshot: full projection, sent on connect and in answer to sync
  - intents: ordered mount/unmount/show/hide instructions
  - result: outcome of an event (state, stale flag)
  - error: API error (same codes as the HTTP API)
  - session_closed: the session was deleted or reaped; the socket closes

Client to server:
  - event: {"type":"event","request_id":"1","data":{"type":"loaded","id":"plex","generation":3}}
  - sync: request a fresh snapshot
  - ping

Intents that were queued before a client connected can arrive right after
its snapshot. Clients treat a mount for an id and generation they already
display as a no-op.

Usage:

	hub := websocket.NewHub(manager, websocket.Config{EventsPerSecond: 20, EventBurst: 40})
	manager.SetBroadcaster(hub)
	tree.AddMessagingService(services.NewWebSocketHubService(hub))

	// in the upgrade handler
	client := websocket.NewClient(r.Context(), hub, conn, sessionID)
	hub.Register <- client
	client.Start()
*/
package websocket
