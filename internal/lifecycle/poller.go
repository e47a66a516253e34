// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/flwarden/internal/hook"
	"github.com/tomtom215/flwarden/internal/logging"
	"github.com/tomtom215/flwarden/internal/metrics"
)

const (
	DefaultPollInterval    = 3 * time.Second
	DefaultPlayersInterval = 30 * time.Second
)

// HookQuerier is the subset of the command client the poller uses.
type HookQuerier interface {
	ServerInfo(ctx context.Context) (hook.ServerInfo, error)
	GetPlayers(ctx context.Context, into map[int]hook.Player) error
}

// PlayerReplacer receives full player lists.
type PlayerReplacer interface {
	Replace(players map[int]hook.Player)
}

// PollSnapshot is the latest serverinfo result.
type PollSnapshot struct {
	Connected bool      `json:"connected"`
	Load      int       `json:"load"`
	NPCSpawn  bool      `json:"npc_spawn"`
	Uptime    string    `json:"uptime"`
	Polled    time.Time `json:"polled"`
}

// Poller queries FLHook on an interval and keeps the latest snapshot.
type Poller struct {
	client          HookQuerier
	roster          PlayerReplacer
	interval        time.Duration
	playersInterval time.Duration

	mu          sync.RWMutex
	snap        PollSnapshot
	lastPlayers time.Time
}

// NewPoller returns a Poller using the default intervals.
func NewPoller(client HookQuerier, roster PlayerReplacer) *Poller {
	return &Poller{
		client:          client,
		roster:          roster,
		interval:        DefaultPollInterval,
		playersInterval: DefaultPlayersInterval,
	}
}

// Snapshot returns the latest poll result.
func (p *Poller) Snapshot() PollSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// Serve implements suture.Service.
func (p *Poller) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.Poll(ctx, time.Now())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll runs one serverinfo query and, when due, a getplayers refresh.
func (p *Poller) Poll(ctx context.Context, now time.Time) {
	info, err := p.client.ServerInfo(ctx)

	p.mu.Lock()
	if err != nil {
		p.snap = PollSnapshot{Polled: now}
	} else {
		p.snap = PollSnapshot{
			Connected: true,
			Load:      info.Load,
			NPCSpawn:  info.NPCSpawn,
			Uptime:    info.Uptime,
			Polled:    now,
		}
	}
	playersDue := err == nil && now.Sub(p.lastPlayers) >= p.playersInterval
	if playersDue {
		p.lastPlayers = now
	}
	p.mu.Unlock()

	metrics.SetHookConnected(err == nil)
	if err != nil {
		logging.Debug().Err(err).Msg("serverinfo poll failed")
		return
	}
	if !playersDue || p.roster == nil {
		return
	}

	players := make(map[int]hook.Player)
	if err := p.client.GetPlayers(ctx, players); err != nil {
		logging.Debug().Err(err).Msg("getplayers poll failed")
		return
	}
	p.roster.Replace(players)
}

// String implements fmt.Stringer for suture logging.
func (p *Poller) String() string {
	return "hook-poller"
}
