// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package lifecycle

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/flwarden/internal/config"
	"github.com/tomtom215/flwarden/internal/metrics"
)

var t0 = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return t0.Add(time.Duration(sec) * time.Second)
}

func TestTick_DeterminingStatus(t *testing.T) {
	tests := []struct {
		name      string
		running   bool
		connected bool
		want      State
	}{
		{"no process", false, false, NotRunning},
		{"process with hook", true, true, Running},
		{"process without hook", true, false, Starting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.host.setRunning(tt.running)
			h.hook.set(tt.connected, 0)

			h.tick(t, at(0))
			if got := h.sup.State(); got != tt.want {
				t.Errorf("state = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTick_CooldownIssuesExactlyOneStart(t *testing.T) {
	h := newHarness(t, nil)

	h.tick(t, at(0)) // -> NotRunning
	h.tick(t, at(1)) // arms cooldown until 21
	for sec := 2; sec <= 21; sec++ {
		h.tick(t, at(sec))
	}
	if starts, _, _ := h.host.counts(); starts != 0 {
		t.Fatalf("starts during cooldown = %d, want 0", starts)
	}

	h.tick(t, at(22))
	if starts, _, _ := h.host.counts(); starts != 1 {
		t.Fatalf("starts after cooldown = %d, want 1", starts)
	}
	if h.sup.State() != NotRunning {
		t.Errorf("state = %s, want not_running until the process appears", h.sup.State())
	}

	// The start cleared the cooldown, so the next ticks re-arm it.
	for sec := 23; sec <= 40; sec++ {
		h.tick(t, at(sec))
	}
	if starts, _, _ := h.host.counts(); starts != 1 {
		t.Errorf("starts = %d, want 1", starts)
	}
	if got := h.sup.Status().RestartCount; got != 1 {
		t.Errorf("RestartCount = %d, want 1", got)
	}

	h.host.setRunning(true)
	h.tick(t, at(41))
	if h.sup.State() != Starting {
		t.Errorf("state = %s, want starting", h.sup.State())
	}
	h.hook.set(true, 10)
	h.tick(t, at(42))
	if h.sup.State() != Running {
		t.Errorf("state = %s, want running", h.sup.State())
	}
}

func TestTick_HookDisabledSkipsStarting(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Hook.Port = 0 })
	h.tick(t, at(0))
	h.host.setRunning(true)
	h.tick(t, at(1))
	if h.sup.State() != Running {
		t.Errorf("state = %s, want running", h.sup.State())
	}
	h.tick(t, at(60))
	if _, kills, _ := h.host.counts(); kills != 0 {
		t.Errorf("kills = %d, want 0 with hook monitoring disabled", kills)
	}
}

func runningHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	h := newHarness(t, mutate)
	h.host.setRunning(true)
	h.hook.set(true, 10)
	h.tick(t, at(0))
	if h.sup.State() != Running {
		t.Fatalf("state = %s, want running", h.sup.State())
	}
	return h
}

func TestTick_LoadHysteresis(t *testing.T) {
	h := runningHarness(t, func(c *config.Config) { c.Limits.MaxLoad = 100 })

	h.hook.set(true, 250)
	for sec := 1; sec <= 19; sec++ {
		h.tick(t, at(sec))
	}
	if _, kills, _ := h.host.counts(); kills != 0 {
		t.Fatalf("19s overload stopped the server")
	}

	h.tick(t, at(20))
	h.tick(t, at(21))
	if _, kills, _ := h.host.counts(); kills != 1 {
		t.Errorf("kills after 21s overload = %d, want 1", kills)
	}
}

func TestTick_LoadRecoveryResetsHysteresis(t *testing.T) {
	h := runningHarness(t, func(c *config.Config) { c.Limits.MaxLoad = 100 })

	for sec := 1; sec <= 40; sec++ {
		load := 250
		if sec == 15 {
			load = 50
		}
		h.hook.set(true, load)
		h.tick(t, at(sec))
		if sec == 34 {
			if _, kills, _ := h.host.counts(); kills != 0 {
				t.Fatalf("stopped at %ds despite recovery at 15s", sec)
			}
		}
	}
	if _, kills, _ := h.host.counts(); kills != 1 {
		t.Errorf("kills = %d, want 1", kills)
	}
}

func TestTick_HookLatch(t *testing.T) {
	h := runningHarness(t, nil)

	h.hook.set(false, 0)
	h.tick(t, at(19))
	if _, kills, _ := h.host.counts(); kills != 0 {
		t.Fatal("hook loss within the latch stopped the server")
	}
	if !h.sup.Status().HookConnected {
		t.Error("hook should still be latched connected")
	}

	h.tick(t, at(21))
	if _, kills, _ := h.host.counts(); kills != 1 {
		t.Errorf("kills = %d, want 1", kills)
	}
}

func TestTick_StartupTimeout(t *testing.T) {
	h := newHarness(t, nil)
	h.host.setRunning(true)

	h.tick(t, at(0)) // Starting, startup window opens at 0
	if h.sup.State() != Starting {
		t.Fatalf("state = %s", h.sup.State())
	}
	h.tick(t, at(180))
	if _, kills, _ := h.host.counts(); kills != 0 {
		t.Fatal("stopped before the startup timeout")
	}
	h.tick(t, at(181))
	if _, kills, _ := h.host.counts(); kills != 1 {
		t.Errorf("kills = %d, want 1", kills)
	}
}

func TestTick_MemoryLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		mem   float64
		stops int
	}{
		{"under cap", 1000, 900, 0},
		{"over cap", 1000, 1200, 1},
		{"disabled", 0, 5000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := runningHarness(t, func(c *config.Config) { c.Limits.MaxMemoryMB = tt.limit })
			h.host.mu.Lock()
			h.host.memoryMB = tt.mem
			h.host.mu.Unlock()

			h.tick(t, at(1))
			if _, kills, _ := h.host.counts(); kills != tt.stops {
				t.Errorf("kills = %d, want %d", kills, tt.stops)
			}
		})
	}
}

func TestTick_RunningRaisesPriority(t *testing.T) {
	h := runningHarness(t, nil)
	h.tick(t, at(1))
	h.host.mu.Lock()
	defer h.host.mu.Unlock()
	if h.host.prioritize == 0 {
		t.Error("priority not raised while running")
	}
}

func TestTick_ProcessDiesWhileRunning(t *testing.T) {
	h := runningHarness(t, nil)
	h.host.setRunning(false)

	h.tick(t, at(1))
	if h.sup.State() != Stopping {
		t.Fatalf("state = %s, want stopping", h.sup.State())
	}
	h.tick(t, at(2))
	if h.sup.State() != NotRunning {
		t.Errorf("state = %s, want not_running", h.sup.State())
	}
}

func TestStop_GracefulCloseAvoidsKill(t *testing.T) {
	h := runningHarness(t, func(c *config.Config) { c.Limits.MaxMemoryMB = 10 })
	h.host.mu.Lock()
	h.host.exitOnTerm = true
	h.host.memoryMB = 20
	h.host.mu.Unlock()

	h.tick(t, at(1))
	_, kills, terms := h.host.counts()
	if terms != 1 || kills != 0 {
		t.Errorf("terms = %d, kills = %d, want 1 and 0", terms, kills)
	}
}

func TestStop_ForceKillAfterGracefulTimeout(t *testing.T) {
	h := runningHarness(t, func(c *config.Config) { c.Limits.MaxMemoryMB = 10 })
	h.host.mu.Lock()
	h.host.memoryMB = 20
	h.host.mu.Unlock()

	h.tick(t, at(1))
	_, kills, terms := h.host.counts()
	if terms != 1 || kills != 1 {
		t.Errorf("terms = %d, kills = %d, want 1 and 1", terms, kills)
	}
}

func TestTick_ClosesErrorDialogs(t *testing.T) {
	h := newHarness(t, nil)
	h.host.dialogs = []string{"Freelancer-Server", "Notepad", "FLServer.exe", "FLServer.exe.log - Notepad"}

	h.tick(t, at(0))

	h.host.mu.Lock()
	defer h.host.mu.Unlock()
	want := []string{"Freelancer-Server", "FLServer.exe"}
	if !reflect.DeepEqual(h.host.forced, want) {
		t.Errorf("force closed = %v, want %v", h.host.forced, want)
	}
}

func TestTick_DailyWarningsAndRestart(t *testing.T) {
	h := runningHarness(t, func(c *config.Config) {
		c.Restart = config.RestartConfig{
			Daily: true, Hour: 4,
			Warn10: "Restart in 10 minutes", Warn5: "Restart in 5 minutes", Warn1: "",
		}
	})

	restartAt := time.Date(2026, 3, 15, 4, 0, 55, 0, time.UTC)
	for sec := -15 * 60; sec <= -30; sec++ {
		h.tick(t, restartAt.Add(time.Duration(sec)*time.Second))
	}

	want := []string{"Restart in 10 minutes", "Restart in 5 minutes"}
	if got := h.msg.messages(); !reflect.DeepEqual(got, want) {
		t.Errorf("broadcasts = %q, want %q", got, want)
	}
	if _, kills, _ := h.host.counts(); kills != 1 {
		t.Errorf("kills = %d, want 1 daily restart", kills)
	}
	if h.sup.Status().Daily != Restarting {
		t.Errorf("daily = %s, want restarting", h.sup.Status().Daily)
	}
}

func TestTick_ScheduledCommands(t *testing.T) {
	h := runningHarness(t, func(c *config.Config) {
		c.Schedule = config.ScheduleConfig{Cmd1: "backup.sh", Cmd1Hour: 3, Cmd2: "rotate.sh", Cmd2Hour: 5}
	})

	fire := time.Date(2026, 3, 15, 3, 0, 55, 0, time.UTC)
	for sec := -120; sec <= 120; sec++ {
		h.tick(t, fire.Add(time.Duration(sec)*time.Second))
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(h.host.ranCommands()) < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := h.host.ranCommands(); !reflect.DeepEqual(got, []string{"backup.sh"}) {
		t.Errorf("ran = %v, want [backup.sh]", got)
	}
}

func TestTick_ScheduledCommandsRunWhileServerDown(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.Schedule = config.ScheduleConfig{Cmd1: "backup.sh", Cmd1Hour: 3}
	})

	fire := time.Date(2026, 3, 15, 3, 0, 55, 0, time.UTC)
	for sec := -120; sec <= 120; sec++ {
		h.tick(t, fire.Add(time.Duration(sec)*time.Second))
	}
	if h.sup.State() != NotRunning {
		t.Fatalf("state = %s, want not_running", h.sup.State())
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(h.host.ranCommands()) < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := h.host.ranCommands(); !reflect.DeepEqual(got, []string{"backup.sh"}) {
		t.Errorf("ran = %v, want [backup.sh]", got)
	}
}

// blockStop makes the next graceful close hang and returns the release func.
func blockStop(h *harness) func() {
	gate := make(chan struct{})
	h.host.mu.Lock()
	h.host.closeGate = gate
	h.host.mu.Unlock()
	return func() { close(gate) }
}

func waitTerms(t *testing.T, h *harness, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, _, terms := h.host.counts(); terms >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("graceful close requests did not reach %d", want)
}

func TestTick_OneOperationForConcurrentStopConditions(t *testing.T) {
	h := runningHarness(t, func(c *config.Config) {
		c.Limits.MaxLoad = 100
		c.Limits.MaxMemoryMB = 10
	})
	release := blockStop(h)

	h.host.mu.Lock()
	h.host.memoryMB = 20
	h.host.mu.Unlock()
	h.hook.set(true, 250)

	// Memory trips at once; load trips after its grace period while the
	// first stop is still blocked.
	for sec := 1; sec <= 30; sec++ {
		h.sup.Tick(context.Background(), at(sec))
		if sec == 1 {
			waitTerms(t, h, 1)
		}
	}
	if !h.sup.Status().Busy {
		t.Error("Busy = false while stop is blocked")
	}

	release()
	h.waitSlot(t)

	starts, _, terms := h.host.counts()
	if terms != 1 {
		t.Errorf("graceful close requests = %d, want 1", terms)
	}
	if starts != 0 {
		t.Errorf("starts = %d, want 0", starts)
	}
}

func TestTick_DailyRestartRefusedWhileBusy(t *testing.T) {
	h := runningHarness(t, func(c *config.Config) {
		c.Limits.MaxMemoryMB = 10
		c.Restart = config.RestartConfig{Daily: true, Hour: 4}
	})
	release := blockStop(h)
	defer func() {
		release()
		h.waitSlot(t)
	}()

	restartAt := time.Date(2026, 3, 15, 4, 0, 55, 0, time.UTC)

	h.host.mu.Lock()
	h.host.memoryMB = 20
	h.host.mu.Unlock()
	h.sup.Tick(context.Background(), restartAt.Add(-2*time.Hour))
	waitTerms(t, h, 1)

	h.host.mu.Lock()
	h.host.memoryMB = 5
	h.host.mu.Unlock()

	refused := metrics.DailyRestartWarnings.WithLabelValues("restart_refused")
	restarted := metrics.DailyRestartWarnings.WithLabelValues("restart")
	beforeRefused := testutil.ToFloat64(refused)
	beforeRestart := testutil.ToFloat64(restarted)

	h.sup.Tick(context.Background(), restartAt)

	if got := testutil.ToFloat64(refused) - beforeRefused; got != 1 {
		t.Errorf("restart_refused delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(restarted) - beforeRestart; got != 0 {
		t.Errorf("restart delta = %v, want 0", got)
	}
	if _, _, terms := h.host.counts(); terms != 1 {
		t.Errorf("graceful close requests = %d, want 1", terms)
	}
}

func TestTick_RecordsStats(t *testing.T) {
	h := runningHarness(t, nil)
	h.tick(t, at(1))

	samples := h.sup.opts.Stats.Recent(0)
	if len(samples) != 2 {
		t.Fatalf("samples = %d, want 2", len(samples))
	}
	if samples[1].Time != at(1) || samples[1].Load != 10 {
		t.Errorf("sample = %+v", samples[1])
	}
}

func TestTick_NotifiesStateChanges(t *testing.T) {
	var mu sync.Mutex
	var kinds []string
	h := newHarness(t, nil)
	h.sup.opts.Notify = func(kind string, _ any) {
		mu.Lock()
		kinds = append(kinds, kind)
		mu.Unlock()
	}

	h.tick(t, at(0))
	mu.Lock()
	defer mu.Unlock()
	if len(kinds) != 1 || kinds[0] != "state" {
		t.Errorf("notifications = %v", kinds)
	}
}

func TestSupervisor_ServeStopsOnCancel(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.sup.Serve(ctx); err != context.Canceled {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}
