// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

/*
Package supervisor runs FLWarden's long-lived loops under suture v4.

	flwarden
	├── capture-layer
	│   └── traffic-monitor
	├── hook-layer
	│   ├── hook-event-client
	│   ├── hook-poller
	│   └── config-reloader
	├── control-layer
	│   ├── server-supervisor
	│   └── websocket-hub
	└── api-layer
	    └── http-server

Every service implements Serve(ctx) error and String(). A service that
returns an error is restarted with suture's backoff; one that returns
suture.ErrDoNotRestart stays stopped. Suture events are logged through the
zerolog slog bridge via sutureslog.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddControlService(sup)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	errCh := tree.ServeBackground(ctx)
*/
package supervisor
