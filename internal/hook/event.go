// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package hook

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/flwarden/internal/logging"
	"github.com/tomtom215/flwarden/internal/metrics"
)

// EventClientConfig tunes the event loop timing.
type EventClientConfig struct {
	// ReconnectDelay is slept before every connection attempt.
	ReconnectDelay time.Duration

	// WatchInterval is how often settings are compared with the open session.
	WatchInterval time.Duration

	// ReplyTimeout bounds the handshake and subscribe replies.
	ReplyTimeout time.Duration
}

// DefaultEventClientConfig returns production timings.
func DefaultEventClientConfig() EventClientConfig {
	return EventClientConfig{
		ReconnectDelay: 10 * time.Second,
		WatchInterval:  10 * time.Second,
		ReplyTimeout:   DefaultReplyTimeout,
	}
}

// EventClient holds a persistent eventmode subscription and dispatches
// every received line to its sink.
type EventClient struct {
	settings SettingsFunc
	sink     EventSink
	cfg      EventClientConfig

	mu   sync.Mutex
	sess *session
}

// NewEventClient creates an event client.
func NewEventClient(settings SettingsFunc, sink EventSink, cfg EventClientConfig) *EventClient {
	def := DefaultEventClientConfig()
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = def.ReconnectDelay
	}
	if cfg.WatchInterval <= 0 {
		cfg.WatchInterval = def.WatchInterval
	}
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = def.ReplyTimeout
	}
	return &EventClient{settings: settings, sink: sink, cfg: cfg}
}

// Subscribed reports whether an eventmode session is open.
func (e *EventClient) Subscribed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess != nil
}

// Run reconnects and reads events until ctx is cancelled. It returns nil
// without retrying when the hook port is 0.
func (e *EventClient) Run(ctx context.Context) error {
	log := logging.WithComponent("hook-events")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.cfg.ReconnectDelay):
		}

		settings := e.settings()
		if !settings.Enabled() {
			log.Info().Msg("FLHook port is 0, event client disabled")
			return nil
		}

		if err := e.runSession(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.RecordHookError("event")
			log.Warn().Err(err).Str("addr", settings.Address()).Msg("FLHook event session ended")
		}
	}
}

// runSession connects, subscribes and reads until the connection fails.
func (e *EventClient) runSession(ctx context.Context) error {
	sess, err := dialSession(ctx, e.settings(), e.cfg.ReplyTimeout)
	if err != nil {
		return err
	}
	defer e.drop(sess)

	if err := sess.writeLine("eventmode"); err != nil {
		return err
	}
	reply, err := sess.readLine(e.cfg.ReplyTimeout)
	if err != nil {
		return err
	}
	if reply != "OK" {
		return fmt.Errorf("%w: no eventmode ok message %q", ErrProtocol, reply)
	}

	e.mu.Lock()
	e.sess = sess
	e.mu.Unlock()

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go e.watch(watchCtx, sess)

	logging.Info().Str("addr", sess.settings.Address()).Msg("FLHook event session subscribed")

	for {
		line, err := sess.readLine(0)
		if err != nil {
			return err
		}
		l := ParseLine(line)
		metrics.HookEvents.WithLabelValues(l.Type).Inc()
		e.sink.HandleEvent(l)
	}
}

// watch closes sess when the settings change or ctx ends, unblocking the
// pending read.
func (e *EventClient) watch(ctx context.Context, sess *session) {
	ticker := time.NewTicker(e.cfg.WatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = sess.close()
			return
		case <-ticker.C:
			if e.settings() != sess.settings {
				logging.Info().Msg("FLHook settings changed, closing event session")
				_ = sess.close()
				return
			}
		}
	}
}

func (e *EventClient) drop(sess *session) {
	e.mu.Lock()
	if e.sess == sess {
		e.sess = nil
	}
	e.mu.Unlock()
	_ = sess.close()
}
