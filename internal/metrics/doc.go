// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

/*
Package metrics provides Prometheus collectors for FLWarden.

All collectors are registered on the default registry through promauto and
exposed by the admin API at /metrics:

	curl http://127.0.0.1:8089/metrics

# Available Metrics

Supervisor:
  - flwarden_supervisor_state: Current state (gauge)
  - flwarden_supervisor_restarts_total: Launches issued (counter)
  - flwarden_supervisor_stops_total{reason}: Stops issued (counter)
  - flwarden_daily_restart_warnings_total{stage}: Daily restart warnings (counter)
  - flwarden_scheduled_commands_total{command,result}: Scheduled commands (counter)

Server health:
  - flwarden_server_memory_mb, flwarden_server_load, flwarden_server_players (gauges)

FLHook:
  - flwarden_hook_requests_total{command,result} (counter)
  - flwarden_hook_request_duration_seconds{command} (histogram)
  - flwarden_hook_errors_total{client} (counter)
  - flwarden_hook_connected (gauge)
  - flwarden_hook_events_total{type} (counter)

Traffic:
  - flwarden_traffic_bytes_total{direction} (counter)
  - flwarden_traffic_adapters (gauge)
  - flwarden_traffic_alerts_total (counter)

API and WebSocket:
  - flwarden_api_requests_total{method,endpoint,status} (counter)
  - flwarden_api_request_duration_seconds{method,endpoint} (histogram)
  - flwarden_api_active_requests (gauge)
  - flwarden_websocket_connections (gauge)
  - flwarden_websocket_messages_sent_total, flwarden_websocket_messages_dropped_total (counters)

Circuit breaker:
  - flwarden_circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open
  - flwarden_circuit_breaker_requests_total{name,result}
  - flwarden_circuit_breaker_consecutive_failures{name}
  - flwarden_circuit_breaker_state_transitions_total{name,from_state,to_state}

# Thread Safety

All collectors are safe for concurrent use.
*/
package metrics
