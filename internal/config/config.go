// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all FLWarden configuration loaded from defaults, an optional
// YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in values from defaultConfig()
//  2. Config File: Optional YAML file (CONFIG_PATH, config.yaml, /etc/flwarden/config.yaml)
//  3. Environment Variables: Override any mapped setting
//
// Configuration Categories:
//
//  1. Game server:
//     - Process: FLServer executable, arguments and pre-start command
//     - Hook: FLHook admin socket connection settings
//     - Limits: memory, load and startup watchdog thresholds
//     - Restart: daily restart hour and warning broadcasts
//     - Schedule: two daily external commands
//
//  2. Network:
//     - Traffic: passive UDP capture and high-traffic alerting
//     - Server: admin HTTP API
//
//  3. Observability:
//     - Logging: log level, format and the game event log path
//
// A loaded Config is treated as immutable. Consumers read the current
// snapshot from a Store and never mutate it.
type Config struct {
	Process  ProcessConfig  `koanf:"process"`
	Hook     HookConfig     `koanf:"hook"`
	Limits   LimitsConfig   `koanf:"limits"`
	Restart  RestartConfig  `koanf:"restart"`
	Schedule ScheduleConfig `koanf:"schedule"`
	Traffic  TrafficConfig  `koanf:"traffic"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ProcessConfig describes the supervised FLServer process.
type ProcessConfig struct {
	// Exe is the path to the server executable. Its base name is also used to
	// locate a running instance.
	Exe string `koanf:"exe"`

	// Args is the argument string passed to Exe, split on spaces.
	Args string `koanf:"args"`

	// PreStartCmd runs to completion before every launch when set.
	PreStartCmd string `koanf:"pre_start_cmd"`
}

// ExeName returns the lower-cased base name of the executable.
func (p ProcessConfig) ExeName() string {
	return strings.ToLower(filepath.Base(p.Exe))
}

// WorkDir returns the directory containing the executable.
func (p ProcessConfig) WorkDir() string {
	return filepath.Dir(p.Exe)
}

// ArgList splits Args on runs of whitespace.
func (p ProcessConfig) ArgList() []string {
	return strings.Fields(p.Args)
}

// HookConfig holds FLHook admin socket settings. Port 0 disables every
// FLHook feature.
type HookConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Password string `koanf:"password"`

	// Unicode selects UTF-16LE framing instead of 7-bit ASCII.
	Unicode bool `koanf:"unicode"`
}

// Enabled reports whether FLHook monitoring is configured.
func (h HookConfig) Enabled() bool {
	return h.Port > 0
}

// Address returns host:port for dialing.
func (h HookConfig) Address() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

// LimitsConfig holds the health thresholds that trigger a stop.
type LimitsConfig struct {
	// MaxMemoryMB is the resident memory cap. 0 disables the check.
	MaxMemoryMB int `koanf:"max_memory_mb"`

	// MaxLoad is the FLHook serverload cap. 0 disables the check.
	MaxLoad int `koanf:"max_load"`

	// StartupTimeout bounds the time between launch and the first hook reply.
	StartupTimeout time.Duration `koanf:"startup_timeout"`
}

// RestartConfig holds the daily restart schedule and warning texts.
type RestartConfig struct {
	Daily bool `koanf:"daily"`

	// Hour is added to 00:00:55 local time to get the restart instant.
	Hour int `koanf:"hour"`

	Warn10 string `koanf:"warn10"`
	Warn5  string `koanf:"warn5"`
	Warn1  string `koanf:"warn1"`
}

// ScheduleConfig holds two daily external commands.
type ScheduleConfig struct {
	Cmd1     string `koanf:"cmd1"`
	Cmd1Hour int    `koanf:"cmd1_hour"`
	Cmd2     string `koanf:"cmd2"`
	Cmd2Hour int    `koanf:"cmd2_hour"`
}

// TrafficConfig holds passive capture settings.
type TrafficConfig struct {
	Enabled  bool `koanf:"enabled"`
	PortLow  int  `koanf:"port_low"`
	PortHigh int  `koanf:"port_high"`

	// AlertKbps is the per-player inbound rate above which an IP is flagged.
	// 0 disables alerting.
	AlertKbps int `koanf:"alert_kbps"`
}

// ServerConfig holds admin HTTP API settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// Address returns the listen address.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`

	// EventLogPath receives chat and game event lines. Empty routes them to
	// the main logger.
	EventLogPath string `koanf:"event_log_path"`
}

// Load reads configuration using koanf with layered sources:
//  1. Built-in defaults
//  2. Config file (CONFIG_PATH, config.yaml, /etc/flwarden/config.yaml)
//  3. Environment variables
func Load() (*Config, error) {
	return LoadWithKoanf()
}
