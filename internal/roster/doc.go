// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

/*
Package roster tracks connected players.

Records are keyed by FLHook client id. Event lines carry their fields in a
fixed order, so Apply reads them by position:

	login char=Trent accountdirname=abc id=7 ip=10.0.0.5
	baseenter char=Trent id=7 base=Li01_01_Base system=Li01
	spawn char=Trent id=7 system=Li01
	disconnect char=Trent id=7

A disconnect blanks the record rather than deleting it. Only Replace, fed by
a full getplayers result, removes ids.

Chat events do not change the roster. Apply returns them formatted as

	<from>-><dest>: <text>

where dest is the sender's system for system chat, the recipient for
private chat, and empty otherwise.
*/
package roster
