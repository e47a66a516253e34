// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package services

import (
	"context"
	"time"

	"github.com/tomtom215/flwarden/internal/config"
	"github.com/tomtom215/flwarden/internal/logging"
)

// DefaultDisabledRecheck is how often the hook settings are compared while
// the event client is disabled.
const DefaultDisabledRecheck = 10 * time.Second

// EventRunner is satisfied by *hook.EventClient. Run returns nil when the
// hook is disabled in the current configuration.
type EventRunner interface {
	Run(ctx context.Context) error
}

// HookEventService keeps the FLHook event subscription alive. Once the
// client reports the hook disabled it stays disabled until the hook
// settings change, e.g. a reload that sets a port.
type HookEventService struct {
	client   EventRunner
	settings func() config.HookConfig
	recheck  time.Duration
}

// NewHookEventService wraps client. recheck <= 0 uses DefaultDisabledRecheck.
func NewHookEventService(client EventRunner, settings func() config.HookConfig, recheck time.Duration) *HookEventService {
	if recheck <= 0 {
		recheck = DefaultDisabledRecheck
	}
	return &HookEventService{client: client, settings: settings, recheck: recheck}
}

// Serve implements suture.Service.
func (s *HookEventService) Serve(ctx context.Context) error {
	for {
		disabledWith := s.settings()
		if err := s.client.Run(ctx); err != nil {
			return err
		}
		logging.Info().Msg("FLHook events disabled, waiting for a settings change")
		if err := s.waitForChange(ctx, disabledWith); err != nil {
			return err
		}
	}
}

// waitForChange blocks until the hook settings differ from prev.
func (s *HookEventService) waitForChange(ctx context.Context, prev config.HookConfig) error {
	ticker := time.NewTicker(s.recheck)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.settings() != prev {
				return nil
			}
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (s *HookEventService) String() string {
	return "hook-event-client"
}
