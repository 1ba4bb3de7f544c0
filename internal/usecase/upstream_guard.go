package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/riskibarqy/live-scores/internal/platform/logging"
	"github.com/riskibarqy/live-scores/internal/platform/resilience"
)

const (
	reasonQuotaExceeded = "quota_exceeded"
	reasonUnauthorized  = "unauthorized"
	reasonPayloadShape  = "json_parse_error"
	reasonTransient     = "transient_error"
)

// UpstreamGuard is the resilience controller in front of every provider call.
type UpstreamGuard struct {
	breaker   *resilience.CircuitBreaker
	cooldowns resilience.CooldownConfig
	logger    *logging.Logger
}

func NewUpstreamGuard(breaker *resilience.CircuitBreaker, cooldowns resilience.CooldownConfig, logger *logging.Logger) *UpstreamGuard {
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &UpstreamGuard{
		breaker:   breaker,
		cooldowns: resilience.NormalizeCooldownConfig(cooldowns),
		logger:    logger,
	}
}

// Open reports whether calls are currently short-circuited.
func (g *UpstreamGuard) Open() bool {
	return g.breaker.Allow() != nil
}

func (g *UpstreamGuard) Snapshot() resilience.Snapshot {
	return g.breaker.Snapshot()
}

// RecordFailure trips the breaker with the cooldown of err's failure class.
func (g *UpstreamGuard) RecordFailure(ctx context.Context, op string, err error) {
	if err == nil {
		return
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// shutdown, not an upstream failure
		return
	}

	reason, cooldown := g.classify(err)
	g.breaker.Trip(reason, cooldown)
	g.logger.WarnContext(ctx, "upstream call failed, pausing provider calls",
		"operation", op,
		"reason", reason,
		"cooldown", cooldown,
		"error", err,
	)
}

func (g *UpstreamGuard) classify(err error) (string, time.Duration) {
	switch {
	case errors.Is(err, ErrQuotaExceeded):
		return reasonQuotaExceeded, g.cooldowns.QuotaExceeded
	case errors.Is(err, ErrUpstreamUnauthorized):
		return reasonUnauthorized, g.cooldowns.Unauthorized
	case errors.Is(err, ErrPayloadShape):
		return reasonPayloadShape, g.cooldowns.PayloadShape
	default:
		return reasonTransient, g.cooldowns.Transient
	}
}

// guardedCall runs call unless the breaker is open. ok is false when the call was skipped or failed;
// failures have already been recorded.
func guardedCall[T any](ctx context.Context, g *UpstreamGuard, op string, call func(context.Context) (T, error)) (T, bool) {
	var zero T
	generation, err := g.breaker.Permit()
	if err != nil {
		g.logger.DebugContext(ctx, "skip upstream call: breaker open", "operation", op)
		return zero, false
	}

	result, err := call(ctx)
	if err != nil {
		g.RecordFailure(ctx, op, err)
		return zero, false
	}
	g.breaker.RecordSuccess(generation)
	return result, true
}
