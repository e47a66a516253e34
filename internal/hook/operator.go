// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package hook

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/flwarden/internal/logging"
	"github.com/tomtom215/flwarden/internal/metrics"
)

// OperatorBreakerName labels the operator circuit breaker in metrics.
const OperatorBreakerName = "flhook-operator"

// Commander is the subset of CommandClient used for operator actions.
type Commander interface {
	IsOnServer(ctx context.Context, name string) (bool, error)
	Rename(ctx context.Context, oldName, newName string) error
	SaveChar(ctx context.Context, name string) error
	Kick(ctx context.Context, name string) error
	KickByID(ctx context.Context, id int) error
	KickBanByID(ctx context.Context, id int) error
	Ban(ctx context.Context, name string) error
	Unban(ctx context.Context, name string) error
	DeleteChar(ctx context.Context, name string) error
	Msgu(ctx context.Context, text string) error
}

// OperatorConfig tunes the breaker.
type OperatorConfig struct {
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before half-opening.
	OpenTimeout time.Duration
}

// DefaultOperatorConfig opens after 5 consecutive failures for 30 s.
func DefaultOperatorConfig() OperatorConfig {
	return OperatorConfig{ConsecutiveFailures: 5, OpenTimeout: 30 * time.Second}
}

// Operator wraps a Commander for operator-initiated actions with a circuit
// breaker. While the breaker is open calls fail fast with
// ErrOperatorUnavailable. Rejected commands (ERR replies) count as successes
// since FLHook answered.
type Operator struct {
	cmd Commander
	cb  *gobreaker.CircuitBreaker[any]
}

// NewOperator creates an Operator around cmd.
func NewOperator(cmd Commander, cfg OperatorConfig) *Operator {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = DefaultOperatorConfig().ConsecutiveFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultOperatorConfig().OpenTimeout
	}

	metrics.CircuitBreakerState.WithLabelValues(OperatorBreakerName).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(OperatorBreakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        OperatorBreakerName,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
			if trip {
				logging.Warn().Uint32("failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening FLHook operator circuit")
			}
			return trip
		},

		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrRejected)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &Operator{cmd: cmd, cb: cb}
}

// State returns the breaker state as "closed", "half-open" or "open".
func (o *Operator) State() string {
	return stateToString(o.cb.State())
}

func (o *Operator) execute(fn func() (any, error)) (any, error) {
	result, err := o.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(OperatorBreakerName, "rejected").Inc()
			return nil, fmt.Errorf("%w: %v", ErrOperatorUnavailable, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(OperatorBreakerName, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(OperatorBreakerName).Set(float64(o.cb.Counts().ConsecutiveFailures))
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(OperatorBreakerName, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(OperatorBreakerName).Set(0)
	return result, nil
}

func (o *Operator) run(fn func() error) error {
	_, err := o.execute(func() (any, error) {
		return nil, fn()
	})
	return err
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// IsOnServer reports whether name is logged in.
func (o *Operator) IsOnServer(ctx context.Context, name string) (bool, error) {
	result, err := o.execute(func() (any, error) {
		return o.cmd.IsOnServer(ctx, name)
	})
	if err != nil {
		return false, err
	}
	online, _ := result.(bool)
	return online, nil
}

// Rename renames a character.
func (o *Operator) Rename(ctx context.Context, oldName, newName string) error {
	return o.run(func() error { return o.cmd.Rename(ctx, oldName, newName) })
}

// SaveChar saves an online character.
func (o *Operator) SaveChar(ctx context.Context, name string) error {
	return o.run(func() error { return o.cmd.SaveChar(ctx, name) })
}

// Kick kicks a character by name.
func (o *Operator) Kick(ctx context.Context, name string) error {
	return o.run(func() error { return o.cmd.Kick(ctx, name) })
}

// KickByID kicks a client id.
func (o *Operator) KickByID(ctx context.Context, id int) error {
	return o.run(func() error { return o.cmd.KickByID(ctx, id) })
}

// KickBanByID kicks and bans a client id.
func (o *Operator) KickBanByID(ctx context.Context, id int) error {
	return o.run(func() error { return o.cmd.KickBanByID(ctx, id) })
}

// Ban bans a character.
func (o *Operator) Ban(ctx context.Context, name string) error {
	return o.run(func() error { return o.cmd.Ban(ctx, name) })
}

// Unban lifts a ban.
func (o *Operator) Unban(ctx context.Context, name string) error {
	return o.run(func() error { return o.cmd.Unban(ctx, name) })
}

// DeleteChar deletes a character.
func (o *Operator) DeleteChar(ctx context.Context, name string) error {
	return o.run(func() error { return o.cmd.DeleteChar(ctx, name) })
}

// Msgu broadcasts text to all players.
func (o *Operator) Msgu(ctx context.Context, text string) error {
	return o.run(func() error { return o.cmd.Msgu(ctx, text) })
}
