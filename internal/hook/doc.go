// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

/*
Package hook implements the FLHook admin socket protocol.

FLHook speaks newline-terminated text over TCP, either 7-bit ASCII or
UTF-16LE depending on the port it was configured with. Every connection
starts with a banner and a password exchange:

	<- Welcome to FLHack, please authenticate
	-> pass <password>
	<- OK

Two clients share that handshake:

  - CommandClient runs synchronous commands (serverinfo, getplayers, kick,
    ban, msgu, ...). Each reply line must arrive within 5 seconds.
  - EventClient switches its session to eventmode and streams event lines
    (login, disconnect, chat, spawn, ...) into an EventSink.

Operator wraps the CommandClient with a gobreaker circuit breaker for
actions issued through the admin API, so a dead FLHook fails fast instead of
stacking 5 second timeouts.

Lines are parsed with ParseLine into positional Keys and Values; callers read
fields by position because FLHook fixes the key order for every line type.
*/
package hook
