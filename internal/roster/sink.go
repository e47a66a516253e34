// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package roster

import (
	"github.com/tomtom215/flwarden/internal/hook"
	"github.com/tomtom215/flwarden/internal/logging"
)

// EventLogger receives formatted event lines.
type EventLogger interface {
	LogEvent(message string)
}

// Sink applies hook events to a Roster and writes chat, login and disconnect
// lines to an event log.
type Sink struct {
	roster *Roster
	log    EventLogger
}

// NewSink returns a hook.EventSink backed by r. log may be nil.
func NewSink(r *Roster, log EventLogger) *Sink {
	return &Sink{roster: r, log: log}
}

// HandleEvent implements hook.EventSink.
func (s *Sink) HandleEvent(l hook.Line) {
	chat, err := s.roster.Apply(l)
	if err != nil {
		logging.Debug().Err(err).Str("line", l.Raw).Msg("Ignoring event")
		return
	}
	if s.log == nil {
		return
	}
	switch {
	case chat != "":
		s.log.LogEvent(chat)
	case l.Type == "login" || l.Type == "disconnect":
		s.log.LogEvent(l.Raw)
	}
}
