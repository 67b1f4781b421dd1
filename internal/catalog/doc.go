// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

/*
Package catalog loads the admin-managed URL catalog and keeps it current.

The catalog is a YAML file:

	default_idle_timeout: 5m
	groups:
	  - id: media
	    name: Media
	    entries:
	      - id: plex
	        title: Plex
	        url: https://plex.example.com
	        mobile_url: https://plex.example.com/m
	        idle_timeout: 10m   # 0 = never auto-unload; omitted = default

Load parses it with koanf and validates it. Store holds the current catalog
and notifies subscribers (the session manager) on every replacement. Watcher
is a suture service that reloads the file on change; a reload that fails to
parse or validate is logged and the previous catalog stays in effect.
*/
package catalog
