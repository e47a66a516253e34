// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package process

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	psnet "github.com/shirou/gopsutil/v4/net"

	"github.com/tomtom215/flwarden/internal/logging"
)

// ErrIdleTimeout is returned by WaitForIdle when the process never bound a
// UDP socket.
var ErrIdleTimeout = errors.New("process did not become idle")

// ErrEmptyCommand is returned by Run for a blank command line.
var ErrEmptyCommand = errors.New("empty command line")

// DefaultIdlePoll is the WaitForIdle polling interval.
const DefaultIdlePoll = 500 * time.Millisecond

// Launcher starts the server and runs auxiliary commands with os/exec.
type Launcher struct {
	// IdlePoll overrides DefaultIdlePoll when positive.
	IdlePoll time.Duration
}

// Start launches path with args in dir and returns its pid. The child is
// reaped in the background.
func (l *Launcher) Start(path string, args []string, dir string) (int, error) {
	cmd := exec.Command(path, args...)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", path, err)
	}
	pid := cmd.Process.Pid
	go func() {
		err := cmd.Wait()
		logging.Info().Int("pid", pid).AnErr("exit", err).Msg("Server process exited")
	}()
	return pid, nil
}

// WaitForIdle polls until pid has a bound UDP socket or timeout expires.
func (l *Launcher) WaitForIdle(ctx context.Context, pid int, timeout time.Duration) error {
	poll := l.IdlePoll
	if poll <= 0 {
		poll = DefaultIdlePoll
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		conns, err := psnet.ConnectionsPidWithContext(ctx, "udp", int32(pid))
		if err == nil && len(conns) > 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: pid %d after %s", ErrIdleTimeout, pid, timeout)
		case <-ticker.C:
		}
	}
}

// Run executes cmdline to completion and returns its exit code. The command
// line is split on whitespace.
func (l *Launcher) Run(ctx context.Context, cmdline string) (int, error) {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return -1, ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), fmt.Errorf("run %q: %w", cmdline, err)
	}
	return -1, fmt.Errorf("run %q: %w", cmdline, err)
}
