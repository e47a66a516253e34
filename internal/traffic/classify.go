// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package traffic

import (
	"encoding/binary"
	"net/netip"
)

// Direction of a credited datagram relative to the local address.
type Direction int

const (
	Inbound Direction = iota
	Outbound
)

func (d Direction) String() string {
	if d == Outbound {
		return "tx"
	}
	return "rx"
}

const (
	ipv4HeaderLen = 20
	udpPortsEnd   = 24
	protoUDP      = 0x11
)

// Credit is the outcome of classifying one datagram.
type Credit struct {
	Remote    netip.Addr
	Direction Direction
	Bytes     int
}

// Classify inspects an IPv4 datagram captured on local and reports which
// remote address it should be credited to. Only UDP datagrams whose local
// port lies in [lo, hi] are counted. The full datagram length is credited.
func Classify(datagram []byte, local netip.Addr, lo, hi uint16) (Credit, bool) {
	if len(datagram) < ipv4HeaderLen || datagram[9] != protoUDP || len(datagram) < udpPortsEnd {
		return Credit{}, false
	}

	src := netip.AddrFrom4([4]byte(datagram[12:16]))
	dst := netip.AddrFrom4([4]byte(datagram[16:20]))
	srcPort := binary.BigEndian.Uint16(datagram[20:22])
	dstPort := binary.BigEndian.Uint16(datagram[22:24])
	local = local.Unmap()

	switch {
	case dst == local && src != local && dstPort >= lo && dstPort <= hi:
		return Credit{Remote: src, Direction: Inbound, Bytes: len(datagram)}, true
	case src == local && dst != local && srcPort >= lo && srcPort <= hi:
		return Credit{Remote: dst, Direction: Outbound, Bytes: len(datagram)}, true
	}
	return Credit{}, false
}
