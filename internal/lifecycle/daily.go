// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package lifecycle

import (
	"time"

	"github.com/tomtom215/flwarden/internal/config"
)

// dailyOffset is added to local midnight before the configured hour.
const dailyOffset = 55 * time.Second

// fireTime returns today's local midnight plus 55 seconds plus hour hours.
func fireTime(now time.Time, hour int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).
		Add(dailyOffset).
		Add(time.Duration(hour) * time.Hour)
}

// minutesUntil truncates toward zero, so it is 0 from 59s before to 59s
// after the fire time.
func minutesUntil(now time.Time, hour int) int {
	return int(fireTime(now, hour).Sub(now).Minutes())
}

// dailyStep is what one evaluation of the daily countdown asks for.
type dailyStep struct {
	changed bool
	warning string // message to broadcast, may be empty
	stage   string // metrics label
	restart bool
}

// dailyRestart is the countdown sub-machine. It starts Idle.
type dailyRestart struct {
	state DailyState
}

// evaluate advances the countdown. Each state is entered only on its edge.
func (d *dailyRestart) evaluate(now time.Time, cfg config.RestartConfig) dailyStep {
	mins := minutesUntil(now, cfg.Hour)

	enter := func(s DailyState, stage, text string) dailyStep {
		if d.state == s {
			return dailyStep{}
		}
		d.state = s
		return dailyStep{changed: true, stage: stage, warning: text, restart: s == Restarting}
	}

	switch {
	case mins == 0:
		return enter(Restarting, "restart", "")
	case mins == 10:
		return enter(Warning10, "10m", cfg.Warn10)
	case mins == 5:
		return enter(Warning5, "5m", cfg.Warn5)
	case mins == 1:
		return enter(Warning1, "1m", cfg.Warn1)
	case mins < 0 || mins > 10:
		d.state = Idle
	}
	return dailyStep{}
}

// dailyCommand runs an external command once when its fire minute arrives.
type dailyCommand struct {
	executed bool
}

// due reports whether the command should run now. It resets once the fire
// minute has passed, so it runs at most once per day.
func (c *dailyCommand) due(now time.Time, hour int) bool {
	if minutesUntil(now, hour) != 0 {
		c.executed = false
		return false
	}
	if c.executed {
		return false
	}
	c.executed = true
	return true
}
