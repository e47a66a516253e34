// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

/*
Package lifecycle keeps the game server alive.

The Supervisor is a state machine evaluated once per second:

	DeterminingStatus -> NotRunning | Starting | Running
	NotRunning  -> Starting (process seen) or Start after a 20s cooldown
	Starting    -> Running (hook reply) | NotRunning | Stop on timeout or memory
	Running     -> Stopping (process gone) | Stop on hook loss, load or memory
	Stopping    -> NotRunning (process gone)

Hook replies are latched for 20 seconds and load must stay above the limit
for more than 20 seconds before it counts. Start and Stop run in the
background through a single Slot, so a tick never blocks on them and at most
one operation is in flight.

While Running, the daily restart countdown broadcasts warnings at 10, 5 and
1 minutes before restart.hour (offset from 00:00:55 local time) and then stops
the server. Two optional external commands run once per day at their own
hour, in any state.

The Poller queries FLHook serverinfo every 3 seconds and refreshes the roster
from getplayers every 30 seconds. Each tick records a Sample in the Stats
ring.
*/
package lifecycle
