// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package lifecycle

import "sync/atomic"

// Slot admits at most one background operation at a time.
type Slot struct {
	busy atomic.Bool
	done chan struct{}
}

// TryRun starts op in a new goroutine unless another operation is in
// flight. It never blocks.
func (s *Slot) TryRun(op func()) bool {
	if !s.busy.CompareAndSwap(false, true) {
		return false
	}
	done := make(chan struct{})
	s.done = done
	go func() {
		defer func() {
			s.busy.Store(false)
			close(done)
		}()
		op()
	}()
	return true
}

// Busy reports whether an operation is in flight.
func (s *Slot) Busy() bool {
	return s.busy.Load()
}

// Done returns a channel closed when the most recent operation finishes.
// It is nil before the first TryRun. Only the goroutine calling TryRun may
// call Done.
func (s *Slot) Done() <-chan struct{} {
	return s.done
}
