// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

/*
Package metrics provides Prometheus metrics collection and export for observability.

All metrics are registered with the default registry through promauto at package
initialization and exposed by the API router at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint (chi route pattern), status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: In-flight requests (gauge)
  - api_rate_limit_hits_total: Requests rejected by httprate (counter)

Lifecycle Metrics:
  - lifecycle_transitions_total: Requested transitions (counter)
    Labels: operation, result (ok, rejected, unknown_entry)
  - lifecycle_evictions_total: Entries unloaded by the pool manager (counter)
    Labels: reason (idle, capacity, removed)
  - lifecycle_stale_reports_total: Load reports dropped as stale (counter)
    Labels: reason (untracked, not_loading, superseded)
  - lifecycle_load_duration_seconds: Mount intent to load report (histogram)
    Labels: outcome (success, error)
  - lifecycle_intents_total: Intents emitted to the presentation layer (counter)
    Labels: kind (mount, unmount, show, hide)
  - lifecycle_mounted_entries: Mounted entries across sessions (gauge)
  - lifecycle_sweep_duration_seconds: Activity clock sweep duration (histogram)

Session Metrics:
  - sessions_active, sessions_created_total, sessions_reaped_total

Catalog and Preference Metrics:
  - catalog_entries, catalog_reloads_total{result}
  - preference_operations_total{operation,result}

WebSocket Metrics:
  - websocket_connections, websocket_messages_sent_total,
    websocket_messages_received_total, websocket_errors_total{error_type}

# Thread Safety

All metric operations are safe for concurrent use; the Prometheus client
library handles synchronization.
*/
package metrics
