// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package lifecycle

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/flwarden/internal/config"
	"github.com/tomtom215/flwarden/internal/hook"
	"github.com/tomtom215/flwarden/internal/process"
)

// fakeHost simulates the process table, the window list and the launcher.
type fakeHost struct {
	mu sync.Mutex

	running    bool
	pid        int
	memoryMB   float64
	exitOnTerm bool
	dialogs    []string
	// closeGate, when set, holds graceful close requests until closed.
	closeGate chan struct{}

	starts     int
	kills      int
	terms      int
	forced     []string
	ran        []string
	prioritize int
}

type fakeHandle struct {
	h   *fakeHost
	pid int
}

func (f *fakeHandle) PID() int { return f.pid }

func (f *fakeHandle) ResidentMemoryMB() (float64, error) {
	f.h.mu.Lock()
	defer f.h.mu.Unlock()
	return f.h.memoryMB, nil
}

func (f *fakeHandle) SetHighPriority() error {
	f.h.mu.Lock()
	f.h.prioritize++
	f.h.mu.Unlock()
	return nil
}

func (f *fakeHandle) Running() bool {
	f.h.mu.Lock()
	defer f.h.mu.Unlock()
	return f.h.running
}

func (f *fakeHandle) Terminate() error { return nil }

func (f *fakeHandle) Kill() error {
	f.h.mu.Lock()
	defer f.h.mu.Unlock()
	f.h.kills++
	f.h.running = false
	return nil
}

// Find implements process.Locator.
func (h *fakeHost) Find(context.Context) (process.Handle, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return nil, false
	}
	return &fakeHandle{h: h, pid: h.pid}, true
}

// List implements process.WindowController.
func (h *fakeHost) List(context.Context) ([]process.Window, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []process.Window
	if h.running {
		out = append(out, process.Window{Title: process.ServerWindowPrefix + strconv.Itoa(h.pid), PID: h.pid})
	}
	for _, d := range h.dialogs {
		out = append(out, process.Window{Title: d})
	}
	return out, nil
}

// Close implements process.WindowController.
func (h *fakeHost) Close(_ context.Context, w process.Window, force bool) error {
	h.mu.Lock()
	if force {
		defer h.mu.Unlock()
		h.forced = append(h.forced, w.Title)
		for i, d := range h.dialogs {
			if d == w.Title {
				h.dialogs = append(h.dialogs[:i], h.dialogs[i+1:]...)
				break
			}
		}
		return nil
	}
	h.terms++
	if h.exitOnTerm {
		h.running = false
	}
	gate := h.closeGate
	h.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return nil
}

// Start implements Launcher. The process does not appear until the test
// sets running.
func (h *fakeHost) Start(string, []string, string) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts++
	return 4242, nil
}

func (h *fakeHost) WaitForIdle(context.Context, int, time.Duration) error { return nil }

func (h *fakeHost) Run(_ context.Context, cmdline string) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ran = append(h.ran, cmdline)
	return 0, nil
}

func (h *fakeHost) setRunning(v bool) {
	h.mu.Lock()
	h.running = v
	h.pid = 4242
	h.mu.Unlock()
}

func (h *fakeHost) counts() (starts, kills, terms int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.starts, h.kills, h.terms
}

func (h *fakeHost) ranCommands() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.ran...)
}

// fakeHook is a settable HookStatus.
type fakeHook struct {
	mu   sync.Mutex
	snap PollSnapshot
}

func (f *fakeHook) Snapshot() PollSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeHook) set(connected bool, load int) {
	f.mu.Lock()
	f.snap = PollSnapshot{Connected: connected, Load: load}
	f.mu.Unlock()
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeMessenger) Msgu(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeMessenger) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fakeQuerier struct {
	mu      sync.Mutex
	info    hook.ServerInfo
	infoErr error
	players map[int]hook.Player
	listErr error
	lists   int
}

func (f *fakeQuerier) ServerInfo(context.Context) (hook.ServerInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.info, f.infoErr
}

func (f *fakeQuerier) GetPlayers(_ context.Context, into map[int]hook.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return f.listErr
	}
	for id, p := range f.players {
		into[id] = p
	}
	return nil
}

type fakeRoster struct {
	replaced []map[int]hook.Player
}

func (f *fakeRoster) Replace(players map[int]hook.Player) {
	f.replaced = append(f.replaced, players)
}

func testConfig() *config.Config {
	return &config.Config{
		Process: config.ProcessConfig{Exe: "/srv/fl/EXE/FLServer.exe", Args: "-c"},
		Hook:    config.HookConfig{Host: "127.0.0.1", Port: 1919},
		Limits:  config.LimitsConfig{StartupTimeout: 3 * time.Minute},
		Restart: config.RestartConfig{Hour: 4},
		Traffic: config.TrafficConfig{PortLow: 2302, PortHigh: 2400},
	}
}

type harness struct {
	sup  *Supervisor
	host *fakeHost
	hook *fakeHook
	msg  *fakeMessenger
	cfg  *config.Config
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	h := &harness{
		host: &fakeHost{},
		hook: &fakeHook{},
		msg:  &fakeMessenger{},
		cfg:  cfg,
	}
	h.sup = New(Options{
		Config:    func() *config.Config { return h.cfg },
		Locator:   h.host,
		Windows:   h.host,
		Launcher:  h.host,
		Hook:      h.hook,
		Messenger: h.msg,
		Stats:     NewStats(16),
		StopWait:  50 * time.Millisecond,
		ExitPoll:  5 * time.Millisecond,
	})
	return h
}

// tick runs one tick and waits for any operation it started.
func (h *harness) tick(t *testing.T, now time.Time) {
	t.Helper()
	h.sup.Tick(context.Background(), now)
	h.waitSlot(t)
}

func (h *harness) waitSlot(t *testing.T) {
	t.Helper()
	done := h.sup.slot.Done()
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("operation did not finish")
	}
}
