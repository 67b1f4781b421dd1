// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

/*
Package supervisor runs framedeck's long-lived services under suture v4.

# Tree

	framedeck
	├── data-layer
	│   └── catalog-watcher     (catalog.Watcher, if catalog.watch)
	├── messaging-layer
	│   ├── websocket-hub       (services.WebSocketHubService)
	│   └── activity-clock      (session.Sweeper)
	└── api-layer
	    └── http-server         (services.HTTPServerService)

Each layer counts failures on its own. A catalog watcher that keeps failing
on a broken file system watch backs off inside the data layer while the hub
keeps pushing intents and the HTTP server keeps answering.

Session state lives in session.Manager, not in a service. Restarting the hub
drops websocket connections; browsers reconnect and receive a fresh snapshot.
The preferences database is opened before the tree starts and closed after
it stops.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddDataService(watcher)
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(sweeper)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	err = tree.Serve(ctx)
	tree.LogUnstopped()

# Return values

A service returning nil is not restarted. A service returning an error is
restarted after backoff. On ctx cancellation a service returns promptly,
usually with ctx.Err().

Supervisor events (start, stop, failure, backoff) are logged through
sutureslog into the zerolog logger.
*/
package supervisor
