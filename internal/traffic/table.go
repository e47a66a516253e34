// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package traffic

import (
	"net/netip"
	"sync"
	"time"
)

const (
	// Retention is how long a one-second bucket is kept.
	Retention = 40 * time.Second

	// Window is the span of the short-term rate sums.
	Window = 10 * time.Second
)

// Bucket holds the bytes credited to one address during one second.
type Bucket struct {
	Rx int64
	Tx int64
}

// Summary aggregates the buckets of one address.
type Summary struct {
	Rx10s   int64 `json:"rx_10s"`
	Tx10s   int64 `json:"tx_10s"`
	RxTotal int64 `json:"rx_total"`
	TxTotal int64 `json:"tx_total"`
}

// RxKbps converts the 10 second inbound sum to kbit/s.
func (s Summary) RxKbps() float64 {
	return float64(s.Rx10s) * 8 / 1024 / Window.Seconds()
}

func (s *Summary) add(o Summary) {
	s.Rx10s += o.Rx10s
	s.Tx10s += o.Tx10s
	s.RxTotal += o.RxTotal
	s.TxTotal += o.TxTotal
}

// Table is a per-address set of one-second buckets. Buckets are created on
// the first matching datagram. It is safe for concurrent use.
type Table struct {
	mu    sync.Mutex
	addrs map[netip.Addr]map[int64]*Bucket
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{addrs: make(map[netip.Addr]map[int64]*Bucket)}
}

// Add credits c to the bucket for now.
func (t *Table) Add(c Credit, now time.Time) {
	sec := now.Unix()

	t.mu.Lock()
	defer t.mu.Unlock()

	buckets, ok := t.addrs[c.Remote]
	if !ok {
		buckets = make(map[int64]*Bucket)
		t.addrs[c.Remote] = buckets
	}
	b, ok := buckets[sec]
	if !ok {
		b = &Bucket{}
		buckets[sec] = b
	}
	if c.Direction == Outbound {
		b.Tx += int64(c.Bytes)
	} else {
		b.Rx += int64(c.Bytes)
	}
}

// Expire removes buckets older than Retention and addresses left empty.
// It returns the number of buckets removed.
func (t *Table) Expire(now time.Time) int {
	cutoff := now.Add(-Retention).Unix()

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for addr, buckets := range t.addrs {
		for sec := range buckets {
			if sec < cutoff {
				delete(buckets, sec)
				removed++
			}
		}
		if len(buckets) == 0 {
			delete(t.addrs, addr)
		}
	}
	return removed
}

// Summarize adds this table's sums into into. Buckets past Retention are
// skipped even if Expire has not run yet.
func (t *Table) Summarize(now time.Time, into map[netip.Addr]Summary) {
	cutoff := now.Add(-Retention).Unix()
	windowStart := now.Add(-Window).Unix()

	t.mu.Lock()
	defer t.mu.Unlock()

	for addr, buckets := range t.addrs {
		var s Summary
		for sec, b := range buckets {
			if sec < cutoff {
				continue
			}
			s.RxTotal += b.Rx
			s.TxTotal += b.Tx
			if sec >= windowStart {
				s.Rx10s += b.Rx
				s.Tx10s += b.Tx
			}
		}
		acc := into[addr]
		acc.add(s)
		into[addr] = acc
	}
}

// Len returns the number of tracked addresses.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.addrs)
}
