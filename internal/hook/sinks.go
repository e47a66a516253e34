// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package hook

// EventSink receives every line read from the event subscription.
type EventSink interface {
	HandleEvent(Line)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(Line)

// HandleEvent implements EventSink.
func (f SinkFunc) HandleEvent(l Line) { f(l) }

// Sinks fans one event out to several sinks in order.
type Sinks []EventSink

// HandleEvent implements EventSink.
func (s Sinks) HandleEvent(l Line) {
	for _, sink := range s {
		sink.HandleEvent(l)
	}
}
