// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

/*
Package traffic observes the game server's UDP traffic per remote address.

Each local address found at startup becomes an Adapter with a raw ip4:udp
capture and a Table of one-second buckets. Datagrams are credited to the
remote side when the local port is inside the configured game port range:

	inbound:  dst == local, lo <= dstPort <= hi   -> Rx for src
	outbound: src == local, lo <= srcPort <= hi   -> Tx for dst

Buckets older than 40 seconds are expired every 10 seconds. Summary returns
the last 10 seconds and the retained total for each address, merged across
adapters. The Alerter compares the 10 second inbound rate with an allowance
of alert_kbps per connected player on that IP.

Raw sockets require CAP_NET_RAW. Adapters that fail to open are logged and
retried on the next maintenance pass.
*/
package traffic
