// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

/*
Package main is the entry point for the FLWarden supervisor.

FLWarden keeps a Freelancer dedicated server (FLServer) alive. It restarts the
process when it dies, hangs or exceeds its memory or load limits, performs an
optional announced daily restart, follows FLHook's event stream to keep a live
player roster, and measures per-address UDP traffic on the game ports.

# Application Architecture

Every long-lived loop runs under a suture v4 supervisor tree:

	flwarden
	├── capture-layer
	│   └── traffic-monitor (one capture per local address)
	├── hook-layer
	│   ├── hook-event-client (FLHook eventmode session)
	│   ├── hook-poller (serverinfo and getplayers every second)
	│   └── config-reloader
	├── control-layer
	│   ├── server-supervisor (state machine, one tick per second)
	│   └── websocket-hub
	└── api-layer
	    └── http-server (admin API and /metrics)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, YAML file and environment variables
 2. Logging: zerolog with JSON or console output, plus the game event log
 3. FLHook: command client, circuit-breaker operator and event client
 4. Roster: fed by FLHook events and reconciled by getplayers
 5. Traffic: adapter discovery via gopsutil and raw UDP capture
 6. Supervisor: process locator, launcher and the restart state machine
 7. Admin API: chi router, WebSocket hub and Prometheus metrics

# Configuration

Sources are layered, highest priority first:

	Priority: Environment variables > Config file > Defaults

The config file is found through CONFIG_PATH, then config.yaml in the working
directory, then /etc/flwarden/config.yaml. It is re-read every 10 seconds and
on file change; a failed reload keeps the previous settings.

Core environment variables:

	FLSERVER_EXE=C:\Freelancer\EXE\FLServer.exe
	FLHOOK_PORT=1919             # 0 disables every FLHook feature
	FLHOOK_PASSWORD=<password>
	MAX_MEMORY_MB=1500           # 0 disables the memory check
	MAX_LOAD=50                  # 0 disables the load check
	DAILY_RESTART=true
	DAILY_RESTART_HOUR=4
	TRAFFIC_ENABLED=true
	TRAFFIC_ALERT_KBPS=200
	HTTP_PORT=8089
	LOG_LEVEL=info               # trace, debug, info, warn, error
	EVENT_LOG_PATH=events.log

# Graceful Shutdown

On SIGINT or SIGTERM the tree stops every layer: the HTTP server drains in-flight
requests for up to 10 seconds, WebSocket clients are closed and the FLHook
sessions are released. FLServer itself is left running and is adopted again on
the next start.
*/
package main
