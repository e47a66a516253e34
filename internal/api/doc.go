// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

/*
Package api serves FLWarden's admin HTTP interface with chi.

# Endpoints

Read:

	GET  /api/v1/health/live
	GET  /api/v1/status             supervisor state, daily restart stage, health
	GET  /api/v1/players            roster ordered by client id
	GET  /api/v1/traffic            capture adapters and per-address counters
	GET  /api/v1/stats?limit=300    recent health samples (1..3600)
	GET  /api/v1/ws                 live feed (see package websocket)
	GET  /metrics                   Prometheus exposition

Operator (rate limited per client IP):

	POST /api/v1/players/{id}/kick
	POST /api/v1/players/{id}/kickban
	GET  /api/v1/chars/{name}/online
	POST /api/v1/chars/kick         {"name": "Trent"}
	POST /api/v1/chars/save         {"name": "Trent"}
	POST /api/v1/chars/delete       {"name": "Trent"}
	POST /api/v1/chars/ban          {"name": "Trent"}
	POST /api/v1/chars/unban        {"name": "Trent"}
	POST /api/v1/chars/rename       {"from": "Trent", "to": "Juni"}
	POST /api/v1/broadcast          {"text": "Restart in 5 minutes"}

# Responses

Every JSON reply uses one envelope, encoded with goccy/go-json:

	{"status": "success", "data": ..., "metadata": {"timestamp": "...", "request_id": "..."}}
	{"status": "error", "data": null, "metadata": {...}, "error": {"code": "HOOK_REJECTED", "message": "..."}}

FLHook failures map to HTTP status by sentinel: ErrRejected is 422,
ErrDisabled and an open breaker are 503, and transport failures are 502.
Request bodies are validated with package validation before any command
reaches FLHook.
*/
package api
