// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

// Package logging provides centralized zerolog-based structured logging for FLWarden.
//
// # Overview
//
// The package provides:
//   - A global zerolog logger configured once from main via Init
//   - JSON output for production, console output for interactive use
//   - Context-aware logging with correlation ID propagation
//   - An slog adapter so Suture v4 (via sutureslog) logs through zerolog
//   - EventLog, the append-only sink for game chat and event lines
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("state", "running").Msg("Server state changed")
//	logging.Error().Err(err).Msg("Start failed")
//
//	// Context-aware logging (operator actions, start/stop operations)
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Info().Int("client_id", id).Msg("Kicking player")
//
// # Operational vs event logging
//
// Operational lines (state changes, hook failures, capture errors) go to the
// global logger. Chat and event lines produced by the hook event stream go to
// an EventLog, which writes to a dedicated file when logging.event_log_path is
// configured and to the global logger with component=events otherwise.
//
// # Configuration
//
// Environment Variables:
//
//	LOG_LEVEL       - Minimum log level: trace, debug, info, warn, error (default: info)
//	LOG_FORMAT      - Output format: json, console (default: json)
//	LOG_CALLER      - Include caller file:line: true, false (default: false)
//	EVENT_LOG_PATH  - File receiving chat/event lines (default: global logger)
//
// # Thread Safety
//
// The global logger is guarded by an RWMutex; Init may be called again at any
// time to reconfigure it. EventLog is safe for concurrent use.
package logging
