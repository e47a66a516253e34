// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package traffic

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/net/ipv4"
)

// ErrUnsupportedAddress is returned when opening a capture on a non-IPv4
// address.
var ErrUnsupportedAddress = errors.New("capture requires an IPv4 address")

// CaptureError reports a failure to open or read a capture on one adapter.
type CaptureError struct {
	Addr netip.Addr
	Err  error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture on %s: %v", e.Addr, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// PacketSource yields whole IPv4 datagrams, header included.
type PacketSource interface {
	ReadDatagram(buf []byte) ([]byte, error)
	Close() error
}

// Opener opens a PacketSource bound to a local address.
type Opener func(addr netip.Addr) (PacketSource, error)

// OpenRaw opens a raw ip4:udp socket bound to addr. It needs CAP_NET_RAW.
func OpenRaw(addr netip.Addr) (PacketSource, error) {
	if !addr.Unmap().Is4() {
		return nil, ErrUnsupportedAddress
	}
	pc, err := net.ListenPacket("ip4:udp", addr.Unmap().String())
	if err != nil {
		return nil, err
	}
	rc, err := ipv4.NewRawConn(pc)
	if err != nil {
		_ = pc.Close()
		return nil, err
	}
	return &rawSource{conn: rc}, nil
}

type rawSource struct {
	conn *ipv4.RawConn
}

func (s *rawSource) ReadDatagram(buf []byte) ([]byte, error) {
	h, payload, _, err := s.conn.ReadFrom(buf)
	if err != nil {
		return nil, err
	}
	header, err := h.Marshal()
	if err != nil {
		return nil, err
	}
	return append(header, payload...), nil
}

func (s *rawSource) Close() error {
	return s.conn.Close()
}
