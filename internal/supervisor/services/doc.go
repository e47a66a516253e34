// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

/*
Package services adapts FLWarden components that do not already implement
suture.Service.

  - HTTPServerService: runs an *http.Server and shuts it down gracefully
    when the tree stops.
  - WebSocketHubService: runs the live feed hub's RunWithContext loop.
  - HookEventService: runs the FLHook event client. Once the hook port is
    0 it stays idle until the hook settings change.

The supervisor, poller, traffic monitor and config reloader implement
Serve and String themselves and are added to the tree directly.
*/
package services
