// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package hook

import "errors"

// Sentinel errors. Callers classify failures with errors.Is.
var (
	// ErrConnection covers dial, read and write failures.
	ErrConnection = errors.New("flhook connection error")

	// ErrProtocol is returned when a reply does not match the expected shape.
	ErrProtocol = errors.New("flhook protocol error")

	// ErrTimeout is returned when a reply line does not arrive in time.
	ErrTimeout = errors.New("flhook reply timeout")

	// ErrDisabled is returned for every call while the hook port is 0.
	ErrDisabled = errors.New("FLHook comms are disabled")

	// ErrRejected is returned when FLHook answers a command with ERR.
	// The session stays open.
	ErrRejected = errors.New("flhook rejected command")

	// ErrOperatorUnavailable is returned while the operator breaker is open.
	ErrOperatorUnavailable = errors.New("flhook operator unavailable")
)
