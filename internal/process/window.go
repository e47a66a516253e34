// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package process

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ServerWindowPrefix is the title prefix of the server's main window.
const ServerWindowPrefix = "FLServer - Version "

// Window is a closable top-level window.
type Window struct {
	Title string `json:"title"`
	PID   int    `json:"pid"`
}

// WindowController lists and closes windows.
type WindowController interface {
	List(ctx context.Context) ([]Window, error)
	Close(ctx context.Context, w Window, force bool) error
}

// ProcessWindows exposes each matching server process as a pseudo-window
// titled "FLServer - Version <pid>". A graceful close sends SIGTERM and a
// forced close sends SIGKILL. Headless hosts have no error dialogs, so none
// are ever listed.
type ProcessWindows struct {
	locator *ProcessLocator
}

// NewProcessWindows returns a WindowController over locator's matches.
func NewProcessWindows(locator *ProcessLocator) *ProcessWindows {
	return &ProcessWindows{locator: locator}
}

// List returns one pseudo-window per matching process.
func (w *ProcessWindows) List(ctx context.Context) ([]Window, error) {
	procs, err := w.locator.matching(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Window, 0, len(procs))
	for _, p := range procs {
		out = append(out, Window{Title: ServerWindowPrefix + strconv.Itoa(p.PID()), PID: p.PID()})
	}
	return out, nil
}

// Close signals the window's process.
func (w *ProcessWindows) Close(ctx context.Context, win Window, force bool) error {
	p, err := NewProc(ctx, win.PID)
	if err != nil {
		return err
	}
	if force {
		err = p.Kill()
	} else {
		err = p.Terminate()
	}
	if err != nil {
		return fmt.Errorf("close window %q: %w", win.Title, err)
	}
	return nil
}

// CloseMatching closes every window whose title starts with prefix and
// returns how many were closed.
func CloseMatching(ctx context.Context, wc WindowController, prefix string, force bool) (int, error) {
	return closeWhere(ctx, wc, func(title string) bool { return strings.HasPrefix(title, prefix) }, force)
}

// CloseTitled closes every window whose title is exactly title.
func CloseTitled(ctx context.Context, wc WindowController, title string, force bool) (int, error) {
	return closeWhere(ctx, wc, func(t string) bool { return t == title }, force)
}

func closeWhere(ctx context.Context, wc WindowController, match func(string) bool, force bool) (int, error) {
	wins, err := wc.List(ctx)
	if err != nil {
		return 0, err
	}
	closed := 0
	var firstErr error
	for _, win := range wins {
		if !match(win.Title) {
			continue
		}
		if err := wc.Close(ctx, win, force); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		closed++
	}
	return closed, firstErr
}
