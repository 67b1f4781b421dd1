// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for:
// - API endpoint latency and throughput
// - Iframe lifecycle transitions, evictions and load latency
// - Dashboard sessions
// - WebSocket connections
// - Catalog reloads and preference storage

// Result labels for lifecycle_transitions_total.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultUnknown  = "unknown_entry"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Lifecycle Metrics
	LifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_transitions_total",
			Help: "Total number of requested lifecycle transitions by outcome",
		},
		[]string{"operation", "result"},
	)

	LifecycleEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_evictions_total",
			Help: "Total number of pooled entries unloaded by the pool manager",
		},
		[]string{"reason"}, // "idle", "capacity", "removed"
	)

	LifecycleStaleReports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_stale_reports_total",
			Help: "Total number of load reports ignored as stale",
		},
		[]string{"reason"}, // "untracked", "not_loading", "superseded"
	)

	LifecycleLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lifecycle_load_duration_seconds",
			Help:    "Time from mount intent to reported load outcome",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"outcome"}, // "success", "error"
	)

	LifecycleIntents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_intents_total",
			Help: "Total number of presentation intents emitted",
		},
		[]string{"kind"},
	)

	LifecycleMountedEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lifecycle_mounted_entries",
			Help: "Mounted entries across all sessions at the last sweep",
		},
	)

	// Session Metrics
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Current number of dashboard sessions",
		},
	)

	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_created_total",
			Help: "Total number of dashboard sessions created",
		},
	)

	SessionsReaped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_reaped_total",
			Help: "Total number of idle dashboard sessions removed",
		},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lifecycle_sweep_duration_seconds",
			Help:    "Duration of one activity clock sweep over all sessions",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	// Catalog Metrics
	CatalogEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_entries",
			Help: "Number of entries in the loaded URL catalog",
		},
	)

	CatalogReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_reloads_total",
			Help: "Total number of catalog reload attempts",
		},
		[]string{"result"}, // "success", "error"
	)

	// Preference Store Metrics
	PreferenceOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preference_operations_total",
			Help: "Total number of preference store operations",
		},
		[]string{"operation", "result"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// ServiceStarts counts supervised service starts, restarts included.
	ServiceStarts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supervisor_service_starts_total",
			Help: "Total number of times a supervised service was started",
		},
		[]string{"service"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	// AppUptime is computed at scrape time.
	AppUptime = promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
		func() float64 { return time.Since(processStart).Seconds() },
	)
)

var processStart = time.Now()

// SetAppInfo publishes the running version.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordLifecycleTransition counts a transition request by result
// (ResultOK, ResultRejected or ResultUnknown).
func RecordLifecycleTransition(operation, result string) {
	LifecycleTransitions.WithLabelValues(operation, result).Inc()
}

// RecordCatalogReload records a catalog reload attempt and the resulting size.
func RecordCatalogReload(entries int, err error) {
	if err != nil {
		CatalogReloads.WithLabelValues("error").Inc()
		return
	}
	CatalogReloads.WithLabelValues("success").Inc()
	CatalogEntries.Set(float64(entries))
}

// RecordPreferenceOperation records a preference store call.
func RecordPreferenceOperation(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	PreferenceOperations.WithLabelValues(operation, result).Inc()
}

// RecordServiceStart counts one start of the named supervised service.
func RecordServiceStart(service string) {
	ServiceStarts.WithLabelValues(service).Inc()
}
