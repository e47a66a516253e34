// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Supervisor Metrics
	SupervisorState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flwarden_supervisor_state",
			Help: "Supervisor state (0=determining, 1=not_running, 2=starting, 3=running, 4=stopping)",
		},
	)

	SupervisorRestarts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flwarden_supervisor_restarts_total",
			Help: "Total number of server launches issued",
		},
	)

	SupervisorStops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flwarden_supervisor_stops_total",
			Help: "Total number of stops issued, by reason",
		},
		[]string{"reason"},
	)

	DailyRestartWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flwarden_daily_restart_warnings_total",
			Help: "Daily restart warnings emitted, by stage",
		},
		[]string{"stage"}, // "10m", "5m", "1m", "restart", "restart_refused"
	)

	ScheduledCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flwarden_scheduled_commands_total",
			Help: "Scheduled external commands run",
		},
		[]string{"command", "result"},
	)

	// Server health gauges
	ServerMemoryMB = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flwarden_server_memory_mb",
			Help: "Resident memory of the server process in MB",
		},
	)

	ServerLoad = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flwarden_server_load",
			Help: "FLHook reported server load",
		},
	)

	ServerPlayers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flwarden_server_players",
			Help: "Players currently in the roster",
		},
	)

	// FLHook Metrics
	HookRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flwarden_hook_requests_total",
			Help: "FLHook commands sent, by command and result",
		},
		[]string{"command", "result"}, // result: "ok", "error"
	)

	HookRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flwarden_hook_request_duration_seconds",
			Help:    "FLHook command round-trip time",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"command"},
	)

	HookErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flwarden_hook_errors_total",
			Help: "FLHook session errors, by client",
		},
		[]string{"client"}, // "command", "event"
	)

	HookConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flwarden_hook_connected",
			Help: "1 when the last serverinfo poll succeeded",
		},
	)

	HookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flwarden_hook_events_total",
			Help: "FLHook events received, by type",
		},
		[]string{"type"},
	)

	// Traffic Metrics
	TrafficBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flwarden_traffic_bytes_total",
			Help: "Bytes credited to remote addresses",
		},
		[]string{"direction"}, // "rx", "tx"
	)

	TrafficAdapters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flwarden_traffic_adapters",
			Help: "Number of adapters with a working capture",
		},
	)

	TrafficAlerts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flwarden_traffic_alerts_total",
			Help: "High inbound traffic alerts raised",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flwarden_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flwarden_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flwarden_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flwarden_websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flwarden_websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flwarden_websocket_messages_dropped_total",
			Help: "Broadcasts dropped because the hub channel was full",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flwarden_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flwarden_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flwarden_circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flwarden_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

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

// RecordHookRequest records one FLHook command round trip.
func RecordHookRequest(command string, ok bool, duration time.Duration) {
	result := "ok"
	if !ok {
		result = "error"
	}
	HookRequests.WithLabelValues(command, result).Inc()
	HookRequestDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordHookError counts a session failure for client ("command" or "event").
func RecordHookError(client string) {
	HookErrors.WithLabelValues(client).Inc()
}

// SetHookConnected records the poller's connection state.
func SetHookConnected(connected bool) {
	if connected {
		HookConnected.Set(1)
	} else {
		HookConnected.Set(0)
	}
}

// RecordServerSample records the per-tick health gauges.
func RecordServerSample(memoryMB float64, load, players int) {
	ServerMemoryMB.Set(memoryMB)
	ServerLoad.Set(float64(load))
	ServerPlayers.Set(float64(players))
}

// RecordStop counts a stop issued for reason.
func RecordStop(reason string) {
	SupervisorStops.WithLabelValues(reason).Inc()
}

// RecordTraffic credits n bytes in direction "rx" or "tx".
func RecordTraffic(direction string, n int) {
	TrafficBytes.WithLabelValues(direction).Add(float64(n))
}
