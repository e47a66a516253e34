// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

//go:build unix

package process

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// HighPriority is the nice value applied to a running server.
const HighPriority = -10

// setHighPriority needs CAP_SYS_NICE to lower the nice value.
func setHighPriority(pid int) error {
	if err := unix.Setpriority(unix.PRIO_PROCESS, pid, HighPriority); err != nil {
		return fmt.Errorf("setpriority pid %d: %w", pid, err)
	}
	return nil
}
