// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

/*
Package websocket pushes live server activity to dashboard clients.

Every frame is a JSON object:

	{"type": "state", "time": "2026-10-18T03:00:55Z", "data": {"from": "Running", "to": "Stopping"}}

Types:

  - event: a raw FLHook event line
  - state: a supervisor state transition
  - stop: a stop was issued, with its reason
  - daily_restart: a daily restart warning stage
  - traffic_alert: an address exceeded its inbound limit
  - pong: reply to a client "ping"

Hub.Notify has the same shape as lifecycle.NotifyFunc, so the supervisor
can publish directly. Producers never block: when the hub queue is full
the message is dropped and flwarden_websocket_messages_dropped_total
increments. A client that cannot keep up is disconnected.

The hub runs under suture through services.WebSocketHubService.
*/
package websocket
