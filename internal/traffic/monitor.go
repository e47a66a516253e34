// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package traffic

import (
	"context"
	"net/netip"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/flwarden/internal/logging"
	"github.com/tomtom215/flwarden/internal/metrics"
)

// MaintainInterval is how often each adapter toggles capture and expires
// buckets.
const MaintainInterval = 10 * time.Second

// Monitor owns the fixed adapter set discovered at startup.
type Monitor struct {
	adapters []*Adapter
	interval time.Duration
}

// NewMonitor returns a Monitor over adapters.
func NewMonitor(adapters []*Adapter) *Monitor {
	return &Monitor{adapters: adapters, interval: MaintainInterval}
}

// AdapterStatus describes one adapter for the admin API.
type AdapterStatus struct {
	Name      string `json:"name"`
	Addr      string `json:"addr"`
	Capturing bool   `json:"capturing"`
	Addresses int    `json:"addresses"`
}

// Adapters reports the state of every adapter.
func (m *Monitor) Adapters() []AdapterStatus {
	out := make([]AdapterStatus, 0, len(m.adapters))
	for _, a := range m.adapters {
		out = append(out, AdapterStatus{
			Name:      a.Name,
			Addr:      a.Addr.String(),
			Capturing: a.Capturing(),
			Addresses: a.table.Len(),
		})
	}
	return out
}

// Summary merges the per-address sums of all adapters.
func (m *Monitor) Summary(now time.Time) map[netip.Addr]Summary {
	out := make(map[netip.Addr]Summary)
	for _, a := range m.adapters {
		a.table.Summarize(now, out)
	}
	return out
}

// Serve runs one maintenance loop per adapter until ctx ends, then closes
// every capture. With no adapters it idles.
func (m *Monitor) Serve(ctx context.Context) error {
	if len(m.adapters) == 0 {
		logging.Warn().Msg("No network adapters available, traffic monitoring inactive")
		<-ctx.Done()
		return ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range m.adapters {
		g.Go(func() error {
			m.maintain(gctx, a)
			return nil
		})
	}
	err := g.Wait()

	for _, a := range m.adapters {
		_ = a.SetCapture(false)
	}
	metrics.TrafficAdapters.Set(0)
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (m *Monitor) maintain(ctx context.Context, a *Adapter) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		a.Maintain(time.Now())
		m.recordAdapters()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Monitor) recordAdapters() {
	n := 0
	for _, a := range m.adapters {
		if a.Capturing() {
			n++
		}
	}
	metrics.TrafficAdapters.Set(float64(n))
}

// String implements fmt.Stringer for suture logging.
func (m *Monitor) String() string {
	return "traffic-monitor"
}
