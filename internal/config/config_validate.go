// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that the configuration is complete and within range.
func (c *Config) Validate() error {
	if err := c.validateProcess(); err != nil {
		return err
	}

	if err := c.validateHook(); err != nil {
		return err
	}

	if err := c.validateLimits(); err != nil {
		return err
	}

	if err := c.validateRestart(); err != nil {
		return err
	}

	if err := c.validateSchedule(); err != nil {
		return err
	}

	if err := c.validateTraffic(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateProcess validates the supervised process settings
func (c *Config) validateProcess() error {
	if strings.TrimSpace(c.Process.Exe) == "" {
		return fmt.Errorf("FLSERVER_EXE is required")
	}
	return nil
}

// validateHook validates FLHook connection settings
func (c *Config) validateHook() error {
	if c.Hook.Port < 0 || c.Hook.Port > 65535 {
		return fmt.Errorf("FLHOOK_PORT must be between 0 and 65535")
	}
	if c.Hook.Enabled() && c.Hook.Host == "" {
		return fmt.Errorf("FLHOOK_HOST is required when FLHOOK_PORT is set")
	}
	return nil
}

// validateLimits validates health thresholds
func (c *Config) validateLimits() error {
	if c.Limits.MaxMemoryMB < 0 {
		return fmt.Errorf("MAX_MEMORY_MB must not be negative")
	}
	if c.Limits.MaxLoad < 0 {
		return fmt.Errorf("MAX_LOAD must not be negative")
	}
	if c.Limits.StartupTimeout < time.Second {
		return fmt.Errorf("STARTUP_TIMEOUT must be at least 1s")
	}
	return nil
}

// validateRestart validates the daily restart hour
func (c *Config) validateRestart() error {
	if !validHour(c.Restart.Hour) {
		return fmt.Errorf("DAILY_RESTART_HOUR must be between 0 and 23")
	}
	return nil
}

// validateSchedule validates scheduled command hours
func (c *Config) validateSchedule() error {
	if !validHour(c.Schedule.Cmd1Hour) {
		return fmt.Errorf("DAILY_CMD1_HOUR must be between 0 and 23")
	}
	if !validHour(c.Schedule.Cmd2Hour) {
		return fmt.Errorf("DAILY_CMD2_HOUR must be between 0 and 23")
	}
	return nil
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}

// validateTraffic validates the captured port range
func (c *Config) validateTraffic() error {
	if !validPort(c.Traffic.PortLow) || !validPort(c.Traffic.PortHigh) {
		return fmt.Errorf("TRAFFIC_PORT_LOW and TRAFFIC_PORT_HIGH must be between 0 and 65535")
	}
	if c.Traffic.PortLow > c.Traffic.PortHigh {
		return fmt.Errorf("TRAFFIC_PORT_LOW (%d) must not exceed TRAFFIC_PORT_HIGH (%d)",
			c.Traffic.PortLow, c.Traffic.PortHigh)
	}
	if c.Traffic.AlertKbps < 0 {
		return fmt.Errorf("TRAFFIC_ALERT_KBPS must not be negative")
	}
	return nil
}

func validPort(p int) bool {
	return p >= 0 && p <= 65535
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// validateServer validates admin API configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.RateLimitReqs < minRateLimitRequests || c.Server.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Server.RateLimitWindow < minRateLimitWindow || c.Server.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}
