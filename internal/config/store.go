// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package config

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/tomtom215/flwarden/internal/logging"
)

// DefaultReloadInterval is how often the Reloader rebuilds the snapshot.
const DefaultReloadInterval = 10 * time.Second

// LoaderFunc builds a fresh, validated Config.
type LoaderFunc func() (*Config, error)

// Store holds the current immutable Config snapshot. Readers call Current()
// and must not mutate the returned value.
type Store struct {
	current atomic.Pointer[Config]
	loader  LoaderFunc
}

// NewStore returns a Store seeded with initial. loader is used by Reload;
// nil means LoadWithKoanf.
func NewStore(initial *Config, loader LoaderFunc) *Store {
	if loader == nil {
		loader = LoadWithKoanf
	}
	s := &Store{loader: loader}
	s.current.Store(initial)
	return s
}

// Current returns the active snapshot.
func (s *Store) Current() *Config {
	return s.current.Load()
}

// Set replaces the active snapshot.
func (s *Store) Set(cfg *Config) {
	s.current.Store(cfg)
}

// Reload builds a new snapshot. On error the previous snapshot stays active.
// changed reports whether the new snapshot differs from the old one.
func (s *Store) Reload() (changed bool, err error) {
	next, err := s.loader()
	if err != nil {
		return false, fmt.Errorf("reload config: %w", err)
	}
	prev := s.current.Swap(next)
	return !reflect.DeepEqual(prev, next), nil
}

// Reloader is a supervised service that periodically reloads a Store.
type Reloader struct {
	store    *Store
	interval time.Duration
	trigger  chan struct{}
}

// NewReloader creates a Reloader for store. interval <= 0 uses
// DefaultReloadInterval.
func NewReloader(store *Store, interval time.Duration) *Reloader {
	if interval <= 0 {
		interval = DefaultReloadInterval
	}
	return &Reloader{
		store:    store,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests an immediate reload. It never blocks.
func (r *Reloader) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Watch hooks the config file watcher to Trigger. Empty path is a no-op.
func (r *Reloader) Watch(path string) error {
	if path == "" {
		return nil
	}
	return WatchConfigFile(path, r.Trigger)
}

// Serve implements suture.Service.
func (r *Reloader) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-r.trigger:
		}
		r.reload()
	}
}

func (r *Reloader) reload() {
	changed, err := r.store.Reload()
	if err != nil {
		logging.Warn().Err(err).Msg("Config reload failed, keeping previous settings")
		return
	}
	if changed {
		cfg := r.store.Current()
		logging.SetLevelString(cfg.Logging.Level)
		logging.Info().Str("log_level", cfg.Logging.Level).Msg("Configuration reloaded")
	}
}

// String implements fmt.Stringer for suture logging.
func (r *Reloader) String() string {
	return "config-reloader"
}
