// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/flwarden/config.yaml",
	"/etc/flwarden/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Process: ProcessConfig{
			Exe:         "FLServer.exe",
			Args:        "",
			PreStartCmd: "",
		},
		Hook: HookConfig{
			Host:     "127.0.0.1",
			Port:     1919,
			Password: "",
			Unicode:  false,
		},
		Limits: LimitsConfig{
			MaxMemoryMB:    0,
			MaxLoad:        0,
			StartupTimeout: 3 * time.Minute,
		},
		Restart: RestartConfig{
			Daily:  false,
			Hour:   4,
			Warn10: "Server restart in 10 minutes",
			Warn5:  "Server restart in 5 minutes",
			Warn1:  "Server restart in 1 minute",
		},
		Schedule: ScheduleConfig{
			Cmd1:     "",
			Cmd1Hour: 0,
			Cmd2:     "",
			Cmd2Hour: 0,
		},
		Traffic: TrafficConfig{
			Enabled:   false,
			PortLow:   2302,
			PortHigh:  2400,
			AlertKbps: 0,
		},
		Server: ServerConfig{
			Port:            8089,
			Host:            "127.0.0.1",
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "json",
			Caller:       false,
			EventLogPath: "",
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := FindConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Environment variables (highest priority)
	// FLHOOK_PORT -> hook.port, MAX_MEMORY_MB -> limits.max_memory_mb
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func FindConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Unmapped variables are ignored so unrelated environment does not leak in.
var envMappings = map[string]string{
	// Process
	"flserver_exe":           "process.exe",
	"flserver_args":          "process.args",
	"flserver_pre_start_cmd": "process.pre_start_cmd",

	// FLHook
	"flhook_host":     "hook.host",
	"flhook_port":     "hook.port",
	"flhook_password": "hook.password",
	"flhook_unicode":  "hook.unicode",

	// Limits
	"max_memory_mb":   "limits.max_memory_mb",
	"max_load":        "limits.max_load",
	"startup_timeout": "limits.startup_timeout",

	// Daily restart
	"daily_restart":      "restart.daily",
	"daily_restart_hour": "restart.hour",
	"restart_warn10":     "restart.warn10",
	"restart_warn5":      "restart.warn5",
	"restart_warn1":      "restart.warn1",

	// Scheduled commands
	"daily_cmd1":      "schedule.cmd1",
	"daily_cmd1_hour": "schedule.cmd1_hour",
	"daily_cmd2":      "schedule.cmd2",
	"daily_cmd2_hour": "schedule.cmd2_hour",

	// Traffic
	"traffic_enabled":    "traffic.enabled",
	"traffic_port_low":   "traffic.port_low",
	"traffic_port_high":  "traffic.port_high",
	"traffic_alert_kbps": "traffic.alert_kbps",

	// Admin API
	"http_port":           "server.port",
	"http_host":           "server.host",
	"http_timeout":        "server.timeout",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",

	// Logging
	"log_level":      "logging.level",
	"log_format":     "logging.format",
	"log_caller":     "logging.caller",
	"event_log_path": "logging.event_log_path",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - FLHOOK_PORT -> hook.port
//   - DAILY_RESTART_HOUR -> restart.hour
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// callback runs on every change notification that carries no error.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
