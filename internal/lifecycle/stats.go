// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package lifecycle

import (
	"sync"
	"time"
)

// DefaultStatsCapacity holds one hour of one-second samples.
const DefaultStatsCapacity = 3600

// Sample is one tick's health reading.
type Sample struct {
	Time     time.Time `json:"time"`
	Load     int       `json:"load"`
	Players  int       `json:"players"`
	MemoryMB float64   `json:"memory_mb"`
	NPCSpawn bool      `json:"npc_spawn"`
}

// Stats is a fixed-capacity ring of samples. It is safe for concurrent use.
type Stats struct {
	mu      sync.RWMutex
	samples []Sample
	next    int
	full    bool
}

// NewStats returns a ring holding capacity samples. capacity <= 0 uses
// DefaultStatsCapacity.
func NewStats(capacity int) *Stats {
	if capacity <= 0 {
		capacity = DefaultStatsCapacity
	}
	return &Stats{samples: make([]Sample, capacity)}
}

// Add stores s, overwriting the oldest sample when full.
func (r *Stats) Add(s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples[r.next] = s
	r.next = (r.next + 1) % len(r.samples)
	if r.next == 0 {
		r.full = true
	}
}

// Len returns the number of stored samples.
func (r *Stats) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.full {
		return len(r.samples)
	}
	return r.next
}

// Recent returns up to limit of the newest samples in chronological order.
// limit <= 0 returns all of them.
func (r *Stats) Recent(limit int) []Sample {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.next
	if r.full {
		n = len(r.samples)
	}
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]Sample, n)
	start := r.next - n
	if start < 0 {
		start += len(r.samples)
	}
	for i := range out {
		out[i] = r.samples[(start+i)%len(r.samples)]
	}
	return out
}
