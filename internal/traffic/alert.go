// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package traffic

import (
	"net/netip"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/flwarden/internal/logging"
	"github.com/tomtom215/flwarden/internal/metrics"
)

// AlertInterval limits alerts to one per address per interval.
const AlertInterval = time.Minute

// Alert reports an address whose inbound rate exceeds its allowance.
type Alert struct {
	IP        string    `json:"ip"`
	Kbps      float64   `json:"kbps"`
	LimitKbps float64   `json:"limit_kbps"`
	Players   int       `json:"players"`
	Time      time.Time `json:"time"`
}

// Alerter evaluates traffic summaries against a per-player allowance.
type Alerter struct {
	mu       sync.Mutex
	limiters map[netip.Addr]*rate.Limiter
	notify   func(Alert)
}

// NewAlerter returns an Alerter. notify is called for every alert raised
// and may be nil.
func NewAlerter(notify func(Alert)) *Alerter {
	return &Alerter{
		limiters: make(map[netip.Addr]*rate.Limiter),
		notify:   notify,
	}
}

// Evaluate raises alerts for summaries above alertKbps times the number of
// players on that IP. An IP with no players gets a single allowance.
// alertKbps <= 0 disables alerts.
func (a *Alerter) Evaluate(now time.Time, summaries map[netip.Addr]Summary, playersByIP map[string]int, alertKbps int) []Alert {
	if alertKbps <= 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var alerts []Alert
	for addr, s := range summaries {
		ip := addr.String()
		players := playersByIP[ip]
		limit := float64(alertKbps * max(players, 1))
		kbps := s.RxKbps()
		if kbps <= limit {
			continue
		}

		lim, ok := a.limiters[addr]
		if !ok {
			lim = rate.NewLimiter(rate.Every(AlertInterval), 1)
			a.limiters[addr] = lim
		}
		if !lim.AllowN(now, 1) {
			continue
		}

		alert := Alert{IP: ip, Kbps: kbps, LimitKbps: limit, Players: players, Time: now}
		alerts = append(alerts, alert)
		metrics.TrafficAlerts.Inc()
		logging.Warn().
			Str("ip", ip).
			Float64("kbps", kbps).
			Float64("limit_kbps", limit).
			Int("players", players).
			Msg("High inbound traffic")
		if a.notify != nil {
			a.notify(alert)
		}
	}

	for addr := range a.limiters {
		if _, ok := summaries[addr]; !ok {
			delete(a.limiters, addr)
		}
	}
	return alerts
}
