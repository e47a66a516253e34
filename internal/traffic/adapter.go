// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package traffic

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"sync"
	"time"

	psnet "github.com/shirou/gopsutil/v4/net"

	"github.com/tomtom215/flwarden/internal/config"
	"github.com/tomtom215/flwarden/internal/logging"
	"github.com/tomtom215/flwarden/internal/metrics"
)

const maxDatagram = 65535

// Adapter is one local address with its own capture and bucket table.
type Adapter struct {
	Name string
	Addr netip.Addr

	table    *Table
	open     Opener
	settings func() config.TrafficConfig
	now      func() time.Time

	mu     sync.Mutex
	src    PacketSource
	done   chan struct{}
	closed bool
}

// NewAdapter returns an idle adapter. Capture starts with SetCapture.
func NewAdapter(name string, addr netip.Addr, open Opener, settings func() config.TrafficConfig) *Adapter {
	return &Adapter{
		Name:     name,
		Addr:     addr,
		table:    NewTable(),
		open:     open,
		settings: settings,
		now:      time.Now,
	}
}

// Table returns the adapter's bucket table.
func (a *Adapter) Table() *Table {
	return a.table
}

// Capturing reports whether a receive loop is active.
func (a *Adapter) Capturing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.src != nil
}

// SetCapture opens or closes the capture to match enabled.
func (a *Adapter) SetCapture(enabled bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !enabled {
		a.stopLocked()
		return nil
	}
	if a.src != nil {
		return nil
	}

	src, err := a.open(a.Addr)
	if err != nil {
		return &CaptureError{Addr: a.Addr, Err: err}
	}
	a.src = src
	a.closed = false
	a.done = make(chan struct{})
	go a.receive(src, a.done)
	return nil
}

func (a *Adapter) stopLocked() {
	if a.src == nil {
		return
	}
	a.closed = true
	_ = a.src.Close()
	a.src = nil
	done := a.done
	a.mu.Unlock()
	<-done
	a.mu.Lock()
}

// receive reads until the source fails. Each completed read is classified
// and credited before the next read is issued.
func (a *Adapter) receive(src PacketSource, done chan struct{}) {
	defer close(done)
	buf := make([]byte, maxDatagram)

	for {
		datagram, err := src.ReadDatagram(buf)
		if err != nil {
			a.mu.Lock()
			intentional := a.closed
			if a.src == src {
				a.src = nil
			}
			a.mu.Unlock()
			if !intentional {
				_ = src.Close()
				logging.Warn().Err(&CaptureError{Addr: a.Addr, Err: err}).
					Str("adapter", a.Name).Msg("Capture stopped")
			}
			return
		}

		cfg := a.settings()
		credit, ok := Classify(datagram, a.Addr, uint16(cfg.PortLow), uint16(cfg.PortHigh))
		if !ok {
			continue
		}
		a.table.Add(credit, a.now())
		metrics.RecordTraffic(credit.Direction.String(), credit.Bytes)
	}
}

// Maintain toggles capture to match the current settings and expires old
// buckets.
func (a *Adapter) Maintain(now time.Time) {
	if err := a.SetCapture(a.settings().Enabled); err != nil {
		logging.Warn().Err(err).Str("adapter", a.Name).Msg("Failed to open capture")
	}
	a.table.Expire(now)
}

// DiscoverAdapters lists local addresses with gopsutil. IPv6 link-local
// addresses are skipped.
func DiscoverAdapters(ctx context.Context, open Opener, settings func() config.TrafficConfig) ([]*Adapter, error) {
	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}

	var adapters []*Adapter
	for _, iface := range ifaces {
		for _, ia := range iface.Addrs {
			addr, err := parseInterfaceAddr(ia.Addr)
			if err != nil {
				logging.Debug().Err(err).Str("interface", iface.Name).Msg("Skipping address")
				continue
			}
			if addr.Is6() && addr.IsLinkLocalUnicast() {
				continue
			}
			adapters = append(adapters, NewAdapter(iface.Name, addr, open, settings))
		}
	}
	return adapters, nil
}

// parseInterfaceAddr accepts "10.0.0.5/24" or a bare address.
func parseInterfaceAddr(s string) (netip.Addr, error) {
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Addr{}, err
		}
		return p.Addr().Unmap(), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, errors.Join(fmt.Errorf("bad interface address %q", s), err)
	}
	return addr.Unmap(), nil
}
