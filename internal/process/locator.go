// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package process

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/tomtom215/flwarden/internal/logging"
)

// ErrNotFound is returned when no matching process exists.
var ErrNotFound = errors.New("process not found")

// Handle is a located server process.
type Handle interface {
	PID() int
	ResidentMemoryMB() (float64, error)
	SetHighPriority() error
	Running() bool
	Terminate() error
	Kill() error
}

// Locator finds the supervised server process.
type Locator interface {
	Find(ctx context.Context) (Handle, bool)
}

// NameFunc returns the lower-case executable base name to match.
type NameFunc func() string

// ProcessLocator finds processes by executable base name using gopsutil.
type ProcessLocator struct {
	name NameFunc
}

// NewLocator returns a ProcessLocator matching name() case-insensitively.
// name is evaluated on every Find so configuration changes apply.
func NewLocator(name NameFunc) *ProcessLocator {
	return &ProcessLocator{name: name}
}

// Find returns the first process whose executable base name matches.
func (l *ProcessLocator) Find(ctx context.Context) (Handle, bool) {
	procs, err := l.matching(ctx)
	if err != nil {
		logging.Debug().Err(err).Msg("Process enumeration failed")
		return nil, false
	}
	if len(procs) == 0 {
		return nil, false
	}
	return procs[0], true
}

func (l *ProcessLocator) matching(ctx context.Context) ([]*Proc, error) {
	want := strings.ToLower(l.name())
	if want == "" {
		return nil, nil
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	var out []*Proc
	for _, p := range procs {
		if matchesName(ctx, p, want) {
			out = append(out, &Proc{p: p, ctx: ctx})
		}
	}
	return out, nil
}

// matchesName compares the executable base name, falling back to the
// process name when the executable path is unreadable.
func matchesName(ctx context.Context, p *process.Process, want string) bool {
	if exe, err := p.ExeWithContext(ctx); err == nil && exe != "" {
		return strings.EqualFold(baseName(exe), want)
	}
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return false
	}
	return strings.EqualFold(name, want)
}

// baseName handles both slash styles, since Windows executables may run
// under wine.
func baseName(path string) string {
	path = strings.ReplaceAll(path, `\`, "/")
	return filepath.Base(path)
}

// Proc is a Handle backed by gopsutil.
type Proc struct {
	p   *process.Process
	ctx context.Context
}

// NewProc wraps an existing pid.
func NewProc(ctx context.Context, pid int) (*Proc, error) {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return nil, fmt.Errorf("%w: pid %d: %v", ErrNotFound, pid, err)
	}
	return &Proc{p: p, ctx: ctx}, nil
}

func (h *Proc) PID() int {
	return int(h.p.Pid)
}

// ResidentMemoryMB returns the resident set size in MB.
func (h *Proc) ResidentMemoryMB() (float64, error) {
	mi, err := h.p.MemoryInfoWithContext(h.ctx)
	if err != nil {
		return 0, fmt.Errorf("memory info for pid %d: %w", h.p.Pid, err)
	}
	return float64(mi.RSS) / (1024 * 1024), nil
}

// SetHighPriority raises the scheduling priority of the process.
func (h *Proc) SetHighPriority() error {
	return setHighPriority(int(h.p.Pid))
}

func (h *Proc) Running() bool {
	ok, err := h.p.IsRunningWithContext(h.ctx)
	return err == nil && ok
}

// Terminate asks the process to exit.
func (h *Proc) Terminate() error {
	return h.p.TerminateWithContext(h.ctx)
}

// Kill forcibly ends the process.
func (h *Proc) Kill() error {
	return h.p.KillWithContext(h.ctx)
}
