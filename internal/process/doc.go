// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

/*
Package process wraps the operating system services the supervisor needs.

  - ProcessLocator finds the server by executable base name (gopsutil)
  - Proc reports resident memory and raises priority (x/sys/unix)
  - ProcessWindows maps server processes to closable pseudo-windows
  - Launcher starts the server, waits for it to bind a UDP socket and runs
    auxiliary commands
*/
package process
