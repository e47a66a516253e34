// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package lifecycle

import (
	"context"
	"time"

	"github.com/tomtom215/flwarden/internal/config"
	"github.com/tomtom215/flwarden/internal/logging"
	"github.com/tomtom215/flwarden/internal/metrics"
	"github.com/tomtom215/flwarden/internal/process"
)

// tryStartLocked launches the server unless an operation is in flight.
func (s *Supervisor) tryStartLocked(ctx context.Context, cfg *config.Config, now time.Time) bool {
	opCtx := logging.NewOperationContext(ctx, "start")
	started := s.slot.TryRun(func() { s.startServer(opCtx, cfg.Process) })
	if !started {
		return false
	}
	s.startTime = now
	s.cooldownUntil = time.Time{}
	s.restartCount++
	metrics.SupervisorRestarts.Inc()
	return true
}

// tryStopLocked stops the server unless an operation is in flight. The
// reason is only logged when the stop is accepted.
func (s *Supervisor) tryStopLocked(ctx context.Context, reason string) bool {
	opCtx := logging.NewOperationContext(ctx, "stop")
	stopped := s.slot.TryRun(func() { s.stopServer(opCtx, reason) })
	if stopped {
		metrics.RecordStop(reason)
		s.notify("stop", map[string]string{"reason": reason})
	}
	return stopped
}

func (s *Supervisor) startServer(ctx context.Context, pc config.ProcessConfig) {
	log := logging.Ctx(ctx)

	if pc.PreStartCmd != "" {
		log.Info().Str("command", pc.PreStartCmd).Msg("Executing external command")
		if code, err := s.opts.Launcher.Run(ctx, pc.PreStartCmd); err != nil {
			log.Warn().Err(err).Int("exit_code", code).Msg("Executing external command failed")
		}
	}

	args := pc.ArgList()
	log.Info().Str("exe", pc.Exe).Strs("args", args).Msg("Starting server")
	pid, err := s.opts.Launcher.Start(pc.Exe, args, pc.WorkDir())
	if err != nil {
		log.Error().Err(err).Msg("Starting server failed")
		return
	}

	if err := s.opts.Launcher.WaitForIdle(ctx, pid, s.opts.IdleWait); err != nil {
		log.Warn().Err(err).Int("pid", pid).Msg("Server did not become idle")
		return
	}
	log.Info().Int("pid", pid).Msg("Server started")
}

func (s *Supervisor) stopServer(ctx context.Context, reason string) {
	log := logging.Ctx(ctx)
	log.Warn().Str("reason", reason).Msg("Stopping server")

	n, err := process.CloseMatching(ctx, s.opts.Windows, process.ServerWindowPrefix, false)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to request server shutdown")
	}
	if n > 0 {
		log.Info().Msg("Requesting server shutdown")
		s.waitGone(ctx, s.opts.StopWait)
	}

	if h, ok := s.opts.Locator.Find(ctx); ok {
		log.Info().Int("pid", h.PID()).Msg("Killing server")
		if err := h.Kill(); err != nil {
			log.Warn().Err(err).Msg("Kill failed")
		}
		s.waitGone(ctx, s.opts.StopWait)
	}

	if _, ok := s.opts.Locator.Find(ctx); ok {
		log.Error().Msg("Stopping server failed")
	}
}

// waitGone polls the locator until the process disappears, the timeout
// passes or ctx ends.
func (s *Supervisor) waitGone(ctx context.Context, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.opts.ExitPoll)
	defer ticker.Stop()

	for {
		if _, ok := s.opts.Locator.Find(ctx); !ok {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-ticker.C:
		}
	}
}

// Serve implements suture.Service, ticking once per second.
func (s *Supervisor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(DefaultTickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (s *Supervisor) String() string {
	return "server-supervisor"
}
