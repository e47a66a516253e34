// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ctxKey int

const (
	keyCorrelationID ctxKey = iota
	keyRequestID
	keyOperation
)

// ctxFields lists the context values Ctx copies onto log entries, in output
// order.
var ctxFields = []struct {
	key   ctxKey
	field string
}{
	{keyOperation, "operation"},
	{keyCorrelationID, "correlation_id"},
	{keyRequestID, "request_id"},
}

// GenerateCorrelationID returns a short (8 hex digit) id for tying together
// the log lines of one start, stop or operator action.
func GenerateCorrelationID() string {
	return uuid.NewString()[:8]
}

// GenerateRequestID returns a full UUID.
func GenerateRequestID() string {
	return uuid.NewString()
}

func withValue(ctx context.Context, key ctxKey, v string) context.Context {
	return context.WithValue(ctx, key, v)
}

func value(ctx context.Context, key ctxKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// ContextWithCorrelationID attaches id.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return withValue(ctx, keyCorrelationID, id)
}

// ContextWithNewCorrelationID attaches a freshly generated correlation id.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext returns the correlation id, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return value(ctx, keyCorrelationID)
}

// ContextWithRequestID attaches an HTTP request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, keyRequestID, id)
}

// RequestIDFromContext returns the request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	return value(ctx, keyRequestID)
}

// NewOperationContext tags ctx with a supervisor operation name ("start",
// "stop") and a new correlation id.
//
//	opCtx := logging.NewOperationContext(ctx, "stop")
//	logging.Ctx(opCtx).Warn().Str("reason", reason).Msg("Stopping server")
func NewOperationContext(ctx context.Context, op string) context.Context {
	return ContextWithNewCorrelationID(withValue(ctx, keyOperation, op))
}

// OperationFromContext returns the operation name, or "".
func OperationFromContext(ctx context.Context) string {
	return value(ctx, keyOperation)
}

// Ctx returns the global logger carrying whatever operation, correlation
// and request ids ctx holds.
func Ctx(ctx context.Context) *zerolog.Logger {
	lc := Logger().With()
	for _, f := range ctxFields {
		if v := value(ctx, f.key); v != "" {
			lc = lc.Str(f.field, v)
		}
	}
	l := lc.Logger()
	return &l
}

// WithComponent returns a child logger tagged with component.
//
//	hookLog := logging.WithComponent("hook")
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}
