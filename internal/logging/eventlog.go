// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// EventLog is the append-only sink for game chat and event lines.
// It is safe for concurrent use.
type EventLog struct {
	mu     sync.Mutex
	logger zerolog.Logger
	closer io.Closer
}

// NewEventLog opens path for appending and returns an EventLog writing JSON
// lines to it. An empty path returns an EventLog that writes to the global
// logger with component=events.
func NewEventLog(path string) (*EventLog, error) {
	if path == "" {
		return &EventLog{logger: WithComponent("events")}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log %s: %w", path, err)
	}
	return &EventLog{
		logger: zerolog.New(f).With().Timestamp().Logger(),
		closer: f,
	}, nil
}

// NewEventLogWriter returns an EventLog writing to w. Used by tests and by
// callers that manage the writer themselves.
func NewEventLogWriter(w io.Writer) *EventLog {
	return &EventLog{logger: zerolog.New(w).With().Timestamp().Logger()}
}

// LogEvent appends one event line.
func (e *EventLog) LogEvent(message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger.Info().Msg(message)
}

// Close releases the underlying file, if any.
func (e *EventLog) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}
