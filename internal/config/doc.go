// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

/*
Package config provides layered configuration for FLWarden.

Configuration is built with Koanf v2 from three sources, later ones winning:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: CONFIG_PATH, ./config.yaml or /etc/flwarden/config.yaml
 3. Mapped environment variables

# Environment Variables

Process:
  - FLSERVER_EXE: Server executable path (default: FLServer.exe)
  - FLSERVER_ARGS: Argument string
  - FLSERVER_PRE_START_CMD: Command run before each launch

FLHook:
  - FLHOOK_HOST: Admin socket host (default: 127.0.0.1)
  - FLHOOK_PORT: Admin socket port, 0 disables (default: 1919)
  - FLHOOK_PASSWORD: Admin password
  - FLHOOK_UNICODE: Use UTF-16LE framing (default: false)

Limits and restart:
  - MAX_MEMORY_MB, MAX_LOAD: Stop thresholds, 0 disables
  - STARTUP_TIMEOUT: Launch watchdog (default: 3m)
  - DAILY_RESTART, DAILY_RESTART_HOUR, RESTART_WARN10, RESTART_WARN5, RESTART_WARN1
  - DAILY_CMD1, DAILY_CMD1_HOUR, DAILY_CMD2, DAILY_CMD2_HOUR

Traffic:
  - TRAFFIC_ENABLED, TRAFFIC_PORT_LOW, TRAFFIC_PORT_HIGH, TRAFFIC_ALERT_KBPS

Admin API:
  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT
  - CORS_ORIGINS: Comma-separated origins
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER, EVENT_LOG_PATH

# Snapshots and Reload

A Store publishes the active *Config through an atomic pointer. Components
take Current() at the start of each unit of work and never hold a snapshot
across iterations. The Reloader service rebuilds the snapshot every 10
seconds and immediately on file change; a failed reload keeps the previous
snapshot.

Example:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	store := config.NewStore(cfg, nil)
	tree.AddHookService(config.NewReloader(store, 0))
*/
package config
