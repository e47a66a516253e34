// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package lifecycle

import (
	"context"
	"net/netip"
	"sync"
	"time"

	"github.com/tomtom215/flwarden/internal/config"
	"github.com/tomtom215/flwarden/internal/logging"
	"github.com/tomtom215/flwarden/internal/metrics"
	"github.com/tomtom215/flwarden/internal/process"
	"github.com/tomtom215/flwarden/internal/traffic"
)

const (
	hookLatch    = 20 * time.Second
	loadGrace    = 20 * time.Second
	startCooling = 20 * time.Second

	DefaultStopWait  = 30 * time.Second
	DefaultIdleWait  = 60 * time.Second
	DefaultExitPoll  = time.Second
	DefaultTickEvery = time.Second
)

// Error dialog titles closed on every tick.
var errorDialogs = []string{"Freelancer-Server", "FLServer.exe"}

// Launcher starts the server and runs auxiliary commands.
type Launcher interface {
	Start(path string, args []string, dir string) (int, error)
	WaitForIdle(ctx context.Context, pid int, timeout time.Duration) error
	Run(ctx context.Context, cmdline string) (int, error)
}

// HookStatus exposes the poller's latest snapshot.
type HookStatus interface {
	Snapshot() PollSnapshot
}

// Messenger broadcasts a message to every player.
type Messenger interface {
	Msgu(ctx context.Context, text string) error
}

// PlayerSource reports roster counts.
type PlayerSource interface {
	Count() int
	PlayersByIP() map[string]int
}

// TrafficSource summarizes captured traffic.
type TrafficSource interface {
	Summary(now time.Time) map[netip.Addr]traffic.Summary
}

// NotifyFunc publishes a live event, typically to the websocket hub.
type NotifyFunc func(kind string, data any)

// Options wires a Supervisor. Config, Locator, Windows, Launcher and Hook
// are required.
type Options struct {
	Config    func() *config.Config
	Locator   process.Locator
	Windows   process.WindowController
	Launcher  Launcher
	Hook      HookStatus
	Messenger Messenger
	Players   PlayerSource
	Traffic   TrafficSource
	Alerter   *traffic.Alerter
	Stats     *Stats
	Notify    NotifyFunc

	StopWait time.Duration
	IdleWait time.Duration
	ExitPoll time.Duration
}

// Status is a point-in-time view for the admin API.
type Status struct {
	State         State      `json:"state"`
	Daily         DailyState `json:"daily_restart"`
	RestartCount  int        `json:"restart_count"`
	MemoryMB      float64    `json:"memory_mb"`
	Load          int        `json:"load"`
	NPCSpawn      bool       `json:"npc_spawn"`
	HookConnected bool       `json:"hook_connected"`
	Uptime        string     `json:"uptime"`
	Players       int        `json:"players"`
	StartTime     time.Time  `json:"start_time"`
	Busy          bool       `json:"operation_in_progress"`
}

// Supervisor keeps the server process alive. Tick is driven by a single
// goroutine; Status may be called concurrently.
type Supervisor struct {
	opts Options
	slot Slot

	mu             sync.RWMutex
	state          State
	startTime      time.Time
	cooldownUntil  time.Time
	lastNormalLoad time.Time
	lastHookReply  time.Time
	restartCount   int
	daily          dailyRestart
	cmd1, cmd2     dailyCommand
	status         Status
}

// New returns a Supervisor in DeterminingStatus.
func New(opts Options) *Supervisor {
	if opts.StopWait <= 0 {
		opts.StopWait = DefaultStopWait
	}
	if opts.IdleWait <= 0 {
		opts.IdleWait = DefaultIdleWait
	}
	if opts.ExitPoll <= 0 {
		opts.ExitPoll = DefaultExitPoll
	}
	return &Supervisor{opts: opts, state: DeterminingStatus}
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Status returns the view recorded by the last tick.
func (s *Supervisor) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	st.State = s.state
	st.Daily = s.daily.state
	st.RestartCount = s.restartCount
	st.StartTime = s.startTime
	st.Busy = s.slot.Busy()
	return st
}

// observation is everything a tick reads from collaborators.
type observation struct {
	handle   process.Handle
	found    bool
	memoryMB float64
	poll     PollSnapshot
	players  int
}

func (s *Supervisor) observe(ctx context.Context) observation {
	s.closeErrorDialogs(ctx)

	var o observation
	o.handle, o.found = s.opts.Locator.Find(ctx)
	if o.found {
		mem, err := o.handle.ResidentMemoryMB()
		if err != nil {
			logging.Debug().Err(err).Msg("Failed to read server memory")
		}
		o.memoryMB = mem
	}
	o.poll = s.opts.Hook.Snapshot()
	if s.opts.Players != nil {
		o.players = s.opts.Players.Count()
	}
	return o
}

func (s *Supervisor) closeErrorDialogs(ctx context.Context) {
	for _, title := range errorDialogs {
		n, err := process.CloseTitled(ctx, s.opts.Windows, title, true)
		if err != nil {
			logging.Debug().Err(err).Str("title", title).Msg("Failed to close error dialog")
		}
		if n > 0 {
			logging.Warn().Str("title", title).Int("count", n).Msg("Closed error dialog")
		}
	}
}

// Tick runs one evaluation of the state machine at now.
func (s *Supervisor) Tick(ctx context.Context, now time.Time) {
	cfg := s.opts.Config()
	o := s.observe(ctx)

	var after []func()

	s.mu.Lock()
	from := s.state
	hookEnabled := cfg.Hook.Enabled()
	connected := s.hookConnected(now, o.poll.Connected, hookEnabled)
	overloaded := s.overloaded(now, o.poll.Load, cfg.Limits.MaxLoad)
	memoryOver := cfg.Limits.MaxMemoryMB > 0 && o.memoryMB > float64(cfg.Limits.MaxMemoryMB)

	// External commands fire in every state, including while the server is
	// down or restarting.
	after = append(after, s.scheduledLocked(ctx, cfg, now)...)

	switch s.state {
	case DeterminingStatus:
		switch {
		case !o.found:
			s.state = NotRunning
		case connected:
			s.state = Running
		default:
			s.enterStartingLocked(now, cfg)
		}

	case NotRunning:
		s.lastHookReply = time.Time{}
		s.lastNormalLoad = time.Time{}
		switch {
		case o.found && hookEnabled:
			s.enterStartingLocked(now, cfg)
		case o.found:
			s.state = Running
		case s.cooldownUntil.IsZero():
			s.cooldownUntil = now.Add(startCooling)
		case s.cooldownUntil.Before(now):
			s.tryStartLocked(ctx, cfg, now)
		}

	case Starting:
		switch {
		case !o.found:
			s.state = NotRunning
		case connected || !hookEnabled:
			s.state = Running
		case now.Sub(s.startTime) > cfg.Limits.StartupTimeout:
			s.tryStopLocked(ctx, ReasonStartupTimeout)
		case memoryOver:
			s.tryStopLocked(ctx, ReasonMemory)
		}

	case Running:
		switch {
		case !o.found:
			s.state = Stopping
		case hookEnabled && !connected:
			s.tryStopLocked(ctx, ReasonHookLost)
		case overloaded:
			s.tryStopLocked(ctx, ReasonLoad)
		case memoryOver:
			s.tryStopLocked(ctx, ReasonMemory)
		default:
			if err := o.handle.SetHighPriority(); err != nil {
				logging.Debug().Err(err).Msg("Failed to raise server priority")
			}
			after = append(after, s.dailyLocked(ctx, cfg, now)...)
		}

	case Stopping:
		if !o.found {
			s.state = NotRunning
		} else {
			s.tryStopLocked(ctx, ReasonStopping)
		}
	}

	to := s.state
	s.status = Status{
		MemoryMB:      o.memoryMB,
		Load:          o.poll.Load,
		NPCSpawn:      o.poll.NPCSpawn,
		HookConnected: connected,
		Uptime:        o.poll.Uptime,
		Players:       o.players,
	}
	s.mu.Unlock()

	if from != to {
		s.transitioned(from, to)
	}
	for _, fn := range after {
		fn()
	}
	s.record(cfg, now, o)
}

// enterStartingLocked gives a process that was not launched by the last
// start a full startup window.
func (s *Supervisor) enterStartingLocked(now time.Time, cfg *config.Config) {
	if s.startTime.IsZero() || now.Sub(s.startTime) > cfg.Limits.StartupTimeout {
		s.startTime = now
	}
	s.state = Starting
}

// hookConnected latches a successful poll for hookLatch.
func (s *Supervisor) hookConnected(now time.Time, polled, enabled bool) bool {
	if polled {
		s.lastHookReply = now
		return true
	}
	return enabled && !s.lastHookReply.IsZero() && now.Before(s.lastHookReply.Add(hookLatch))
}

// overloaded reports a load above maxLoad sustained for longer than
// loadGrace. maxLoad <= 0 disables the check.
func (s *Supervisor) overloaded(now time.Time, load, maxLoad int) bool {
	if maxLoad <= 0 || load <= maxLoad {
		s.lastNormalLoad = now
		return false
	}
	return s.lastNormalLoad.Add(loadGrace).Before(now)
}

func (s *Supervisor) transitioned(from, to State) {
	logging.Info().Str("from", from.String()).Str("to", to.String()).Msg("Server state changed")
	metrics.SupervisorState.Set(float64(to))
	s.notify("state", map[string]string{"from": from.String(), "to": to.String()})
}

func (s *Supervisor) notify(kind string, data any) {
	if s.opts.Notify != nil {
		s.opts.Notify(kind, data)
	}
}

func (s *Supervisor) record(cfg *config.Config, now time.Time, o observation) {
	metrics.RecordServerSample(o.memoryMB, o.poll.Load, o.players)
	if s.opts.Stats != nil {
		s.opts.Stats.Add(Sample{
			Time:     now,
			Load:     o.poll.Load,
			Players:  o.players,
			MemoryMB: o.memoryMB,
			NPCSpawn: o.poll.NPCSpawn,
		})
	}
	if s.opts.Alerter != nil && s.opts.Traffic != nil && cfg.Traffic.Enabled {
		var byIP map[string]int
		if s.opts.Players != nil {
			byIP = s.opts.Players.PlayersByIP()
		}
		s.opts.Alerter.Evaluate(now, s.opts.Traffic.Summary(now), byIP, cfg.Traffic.AlertKbps)
	}
}

// dailyLocked advances the daily countdown. Broadcasts are returned as
// deferred calls so they run without the lock.
func (s *Supervisor) dailyLocked(ctx context.Context, cfg *config.Config, now time.Time) []func() {
	if !cfg.Restart.Daily {
		return nil
	}
	step := s.daily.evaluate(now, cfg.Restart)
	if !step.changed {
		return nil
	}
	if step.restart {
		stage := step.stage
		if !s.tryStopLocked(ctx, ReasonDailyRestart) {
			stage = "restart_refused"
			logging.Warn().Msg("Daily restart skipped, another operation is in progress")
		}
		metrics.DailyRestartWarnings.WithLabelValues(stage).Inc()
		return nil
	}
	metrics.DailyRestartWarnings.WithLabelValues(step.stage).Inc()

	logging.Info().Str("stage", step.stage).Msg("Daily restart approaching")
	text := step.warning
	if text == "" || s.opts.Messenger == nil {
		return nil
	}
	return []func(){func() {
		if err := s.opts.Messenger.Msgu(ctx, text); err != nil {
			logging.Warn().Err(err).Str("stage", step.stage).Msg("Failed to broadcast restart warning")
		}
		s.notify("daily_restart", map[string]string{"stage": step.stage, "message": text})
	}}
}

// scheduledLocked starts due external commands in the background.
func (s *Supervisor) scheduledLocked(ctx context.Context, cfg *config.Config, now time.Time) []func() {
	var out []func()
	for _, sc := range []struct {
		cmd   string
		hour  int
		state *dailyCommand
	}{
		{cfg.Schedule.Cmd1, cfg.Schedule.Cmd1Hour, &s.cmd1},
		{cfg.Schedule.Cmd2, cfg.Schedule.Cmd2Hour, &s.cmd2},
	} {
		if sc.cmd == "" || !sc.state.due(now, sc.hour) {
			continue
		}
		cmdline := sc.cmd
		out = append(out, func() { go s.runScheduled(ctx, cmdline) })
	}
	return out
}

func (s *Supervisor) runScheduled(ctx context.Context, cmdline string) {
	logging.Info().Str("command", cmdline).Msg("Executing external command")
	result := "ok"
	if code, err := s.opts.Launcher.Run(ctx, cmdline); err != nil {
		result = "error"
		logging.Warn().Err(err).Int("exit_code", code).Str("command", cmdline).Msg("Executing external command failed")
	}
	metrics.ScheduledCommands.WithLabelValues(cmdline, result).Inc()
}
