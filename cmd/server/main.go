// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/flwarden/internal/api"
	"github.com/tomtom215/flwarden/internal/config"
	"github.com/tomtom215/flwarden/internal/hook"
	"github.com/tomtom215/flwarden/internal/lifecycle"
	"github.com/tomtom215/flwarden/internal/logging"
	"github.com/tomtom215/flwarden/internal/process"
	"github.com/tomtom215/flwarden/internal/roster"
	"github.com/tomtom215/flwarden/internal/supervisor"
	"github.com/tomtom215/flwarden/internal/supervisor/services"
	"github.com/tomtom215/flwarden/internal/traffic"
	ws "github.com/tomtom215/flwarden/internal/websocket"
)

//nolint:gocyclo // sequential wiring of every component
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("exe", cfg.Process.Exe).
		Bool("hook_enabled", cfg.Hook.Enabled()).
		Bool("traffic_enabled", cfg.Traffic.Enabled).
		Bool("daily_restart", cfg.Restart.Daily).
		Str("api_addr", cfg.Server.Address()).
		Msg("Starting FLWarden")

	eventLog, err := logging.NewEventLog(cfg.Logging.EventLogPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open event log")
	}
	defer func() {
		if err := eventLog.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event log")
		}
	}()

	// Every component reads settings through the store so a reload takes
	// effect on its next tick.
	store := config.NewStore(cfg, config.Load)
	reloader := config.NewReloader(store, config.DefaultReloadInterval)
	if path := config.FindConfigFile(); path != "" {
		if err := reloader.Watch(path); err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable, relying on periodic reload")
		}
	}
	hookSettings := func() config.HookConfig { return store.Current().Hook }
	trafficSettings := func() config.TrafficConfig { return store.Current().Traffic }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	hub := ws.NewHub()

	// FLHook command session, breaker-guarded for operator actions.
	cmdClient := hook.NewCommandClient(hookSettings, hook.DefaultReplyTimeout)
	defer func() {
		if err := cmdClient.Close(); err != nil {
			logging.Debug().Err(err).Msg("Error closing FLHook command session")
		}
	}()
	operator := hook.NewOperator(cmdClient, hook.DefaultOperatorConfig())

	players := roster.New()
	events := hook.Sinks{
		roster.NewSink(players, eventLog),
		hook.SinkFunc(func(l hook.Line) {
			hub.Notify(ws.MessageTypeEvent, l.Raw)
		}),
	}
	eventClient := hook.NewEventClient(hookSettings, events, hook.DefaultEventClientConfig())
	poller := lifecycle.NewPoller(cmdClient, players)

	adapters, err := traffic.DiscoverAdapters(ctx, traffic.OpenRaw, trafficSettings)
	if err != nil {
		logging.Warn().Err(err).Msg("Adapter discovery failed, traffic monitoring inactive")
	}
	monitor := traffic.NewMonitor(adapters)
	alerter := traffic.NewAlerter(func(a traffic.Alert) {
		hub.Notify(ws.MessageTypeTrafficAlert, a)
	})

	locator := process.NewLocator(func() string { return store.Current().Process.ExeName() })
	stats := lifecycle.NewStats(lifecycle.DefaultStatsCapacity)

	sup := lifecycle.New(lifecycle.Options{
		Config:    store.Current,
		Locator:   locator,
		Windows:   process.NewProcessWindows(locator),
		Launcher:  &process.Launcher{},
		Hook:      poller,
		Messenger: operator,
		Players:   players,
		Traffic:   monitor,
		Alerter:   alerter,
		Stats:     stats,
		Notify:    hub.Notify,
	})

	handler := api.NewHandler(api.Deps{
		Config:   store.Current,
		Status:   sup,
		Roster:   players,
		Traffic:  monitor,
		Stats:    stats,
		Operator: operator,
		Hub:      hub,
	})
	router := api.NewRouter(handler, api.RouterConfigFrom(cfg.Server))
	server := api.NewServer(cfg.Server, router)

	tree.AddCaptureService(monitor)
	tree.AddHookService(services.NewHookEventService(eventClient, hookSettings, services.DefaultDisabledRecheck))
	tree.AddHookService(poller)
	tree.AddHookService(reloader)
	tree.AddControlService(sup)
	tree.AddControlService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, services.DefaultShutdownTimeout))
	logging.Info().Int("adapters", len(adapters)).Str("addr", server.Addr).Msg("Services added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	// FLServer keeps running; the next start adopts it.
	logging.Info().Msg("FLWarden stopped gracefully")
}
