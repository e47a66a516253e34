// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Process.Exe != "FLServer.exe" {
		t.Errorf("Process.Exe = %q, want FLServer.exe", cfg.Process.Exe)
	}
	if cfg.Hook.Port != 1919 {
		t.Errorf("Hook.Port = %d, want 1919", cfg.Hook.Port)
	}
	if cfg.Hook.Unicode {
		t.Error("Hook.Unicode should be false by default")
	}
	if cfg.Limits.StartupTimeout != 3*time.Minute {
		t.Errorf("Limits.StartupTimeout = %v, want 3m", cfg.Limits.StartupTimeout)
	}
	if cfg.Restart.Daily {
		t.Error("Restart.Daily should be false by default")
	}
	if cfg.Traffic.PortLow != 2302 || cfg.Traffic.PortHigh != 2400 {
		t.Errorf("Traffic ports = %d-%d, want 2302-2400", cfg.Traffic.PortLow, cfg.Traffic.PortHigh)
	}
	if cfg.Server.Port != 8089 {
		t.Errorf("Server.Port = %d, want 8089", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

// TestEnvTransformFunc verifies environment variable name mapping
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"FLHOOK_PORT", "hook.port"},
		{"FLHOOK_PASSWORD", "hook.password"},
		{"FLSERVER_EXE", "process.exe"},
		{"MAX_MEMORY_MB", "limits.max_memory_mb"},
		{"DAILY_RESTART_HOUR", "restart.hour"},
		{"DAILY_CMD2_HOUR", "schedule.cmd2_hour"},
		{"TRAFFIC_ALERT_KBPS", "traffic.alert_kbps"},
		{"HTTP_PORT", "server.port"},
		{"CORS_ORIGINS", "server.cors_origins"},
		{"EVENT_LOG_PATH", "logging.event_log_path"},
		{"log_level", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := envTransformFunc(tt.input); result != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// chdirTemp switches into a fresh temp directory for the duration of the test.
func chdirTemp(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origDir); err != nil {
			t.Errorf("Failed to restore working directory: %v", err)
		}
	})
	return tmpDir
}

// TestFindConfigFile verifies config file discovery
func TestFindConfigFile(t *testing.T) {
	tmpDir := chdirTemp(t)

	t.Run("no config file exists", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		if result := FindConfigFile(); result != "" {
			t.Errorf("FindConfigFile() = %q, want empty string", result)
		}
	})

	t.Run("config.yaml exists", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		configPath := filepath.Join(tmpDir, "config.yaml")
		if err := os.WriteFile(configPath, []byte("hook:\n  port: 0\n"), 0o644); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		defer os.Remove(configPath)

		if result := FindConfigFile(); result != "config.yaml" {
			t.Errorf("FindConfigFile() = %q, want config.yaml", result)
		}
	})

	t.Run("CONFIG_PATH takes precedence", func(t *testing.T) {
		customPath := filepath.Join(tmpDir, "custom.yaml")
		if err := os.WriteFile(customPath, []byte("hook:\n  port: 0\n"), 0o644); err != nil {
			t.Fatalf("Failed to create custom config file: %v", err)
		}
		t.Setenv(ConfigPathEnvVar, customPath)

		if result := FindConfigFile(); result != customPath {
			t.Errorf("FindConfigFile() = %q, want %q", result, customPath)
		}
	})

	t.Run("CONFIG_PATH with non-existent file", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
		if result := FindConfigFile(); result != "" {
			t.Errorf("FindConfigFile() = %q, want empty string", result)
		}
	})
}

// TestLoadWithKoanfEnvVars tests loading configuration from environment variables
func TestLoadWithKoanfEnvVars(t *testing.T) {
	chdirTemp(t)
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("FLHOOK_PORT", "2000")
	t.Setenv("FLHOOK_UNICODE", "true")
	t.Setenv("MAX_MEMORY_MB", "1500")
	t.Setenv("STARTUP_TIMEOUT", "90s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "http://a.local, http://b.local")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Hook.Port != 2000 {
		t.Errorf("Hook.Port = %d, want 2000", cfg.Hook.Port)
	}
	if !cfg.Hook.Unicode {
		t.Error("Hook.Unicode = false, want true")
	}
	if cfg.Limits.MaxMemoryMB != 1500 {
		t.Errorf("Limits.MaxMemoryMB = %d, want 1500", cfg.Limits.MaxMemoryMB)
	}
	if cfg.Limits.StartupTimeout != 90*time.Second {
		t.Errorf("Limits.StartupTimeout = %v, want 90s", cfg.Limits.StartupTimeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.local" {
		t.Errorf("Server.CORSOrigins = %v, want two trimmed origins", cfg.Server.CORSOrigins)
	}

	// Defaults still apply for unset values
	if cfg.Hook.Host != "127.0.0.1" {
		t.Errorf("Hook.Host = %q, want 127.0.0.1 (default)", cfg.Hook.Host)
	}
}

// TestLoadWithKoanfConfigFile tests loading configuration from a YAML file
func TestLoadWithKoanfConfigFile(t *testing.T) {
	tmpDir := chdirTemp(t)

	configContent := `
process:
  exe: /srv/fl/EXE/FLServer.exe
  args: /c /noconsole
hook:
  port: 1920
  password: secret
restart:
  daily: true
  hour: 6
traffic:
  enabled: true
  alert_kbps: 64
server:
  cors_origins:
    - http://dash.local
`
	configPath := filepath.Join(tmpDir, "flwarden.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Process.ExeName() != "flserver.exe" {
		t.Errorf("Process.ExeName() = %q, want flserver.exe", cfg.Process.ExeName())
	}
	if got := cfg.Process.ArgList(); len(got) != 2 || got[0] != "/c" {
		t.Errorf("Process.ArgList() = %v", got)
	}
	if cfg.Hook.Port != 1920 || cfg.Hook.Password != "secret" {
		t.Errorf("Hook = %+v", cfg.Hook)
	}
	if !cfg.Restart.Daily || cfg.Restart.Hour != 6 {
		t.Errorf("Restart = %+v", cfg.Restart)
	}
	if !cfg.Traffic.Enabled || cfg.Traffic.AlertKbps != 64 {
		t.Errorf("Traffic = %+v", cfg.Traffic)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "http://dash.local" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

// TestLoadWithKoanfEnvOverridesFile verifies env vars win over the file
func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	tmpDir := chdirTemp(t)

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("hook:\n  port: 1920\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("FLHOOK_PORT", "0")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Hook.Port != 0 {
		t.Errorf("Hook.Port = %d, want 0 from env", cfg.Hook.Port)
	}
	if cfg.Hook.Enabled() {
		t.Error("Hook.Enabled() should be false for port 0")
	}
}

// TestLoadWithKoanfValidation verifies invalid values are rejected
func TestLoadWithKoanfValidation(t *testing.T) {
	chdirTemp(t)
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("DAILY_RESTART_HOUR", "24")

	if _, err := LoadWithKoanf(); err == nil {
		t.Error("LoadWithKoanf() expected error for restart hour 24")
	}
}
