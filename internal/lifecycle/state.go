// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package lifecycle

// State is the supervisor's view of the server process.
type State int

const (
	DeterminingStatus State = iota
	NotRunning
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case DeterminingStatus:
		return "determining_status"
	case NotRunning:
		return "not_running"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DailyState tracks the countdown to the daily restart.
type DailyState int

const (
	Idle DailyState = iota
	Warning10
	Warning5
	Warning1
	Restarting
)

func (d DailyState) String() string {
	switch d {
	case Idle:
		return "idle"
	case Warning10:
		return "warning_10m"
	case Warning5:
		return "warning_5m"
	case Warning1:
		return "warning_1m"
	case Restarting:
		return "restarting"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON.
func (d DailyState) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Stop reasons.
const (
	ReasonStartupTimeout = "Server startup took too long"
	ReasonMemory         = "Memory limit exceeded"
	ReasonHookLost       = "FLHook connection lost"
	ReasonLoad           = "Server load too high"
	ReasonDailyRestart   = "Killing server for daily restart"
	ReasonStopping       = "Stopping server"
)
