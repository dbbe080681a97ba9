package carrier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/domain"
)

// ResilienceConfig bounds how long and how often the provider is tried.
type ResilienceConfig struct {
	Timeout         time.Duration // Per-attempt timeout
	MaxRetries      uint64        // Retries after the first attempt
	InitialInterval time.Duration // First backoff delay
	MaxInterval     time.Duration // Backoff delay cap
	BreakerFailures uint32        // Consecutive failures that open the breaker
	BreakerTimeout  time.Duration // How long the breaker stays open
}

// DefaultResilienceConfig returns the settings used when none are configured.
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		Timeout:         2 * time.Second,
		MaxRetries:      2,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// ResilientProvider wraps a ProviderClient with a per-attempt timeout, bounded
// exponential retry of transient failures and a circuit breaker. Retries resend
// the same transaction id so the provider can deduplicate them.
type ResilientProvider struct {
	next    ProviderClient
	cfg     ResilienceConfig
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewResilientProvider creates a new ResilientProvider around next.
func NewResilientProvider(next ProviderClient, cfg ResilienceConfig, logger *zap.Logger) *ResilientProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultResilienceConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		cfg.MaxInterval = max(def.MaxInterval, cfg.InitialInterval)
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = def.BreakerFailures
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = def.BreakerTimeout
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "carrier-provider",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// only transient provider failures count against the breaker
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, domain.ErrProviderUnavailable)
		},
	})

	return &ResilientProvider{
		next:    next,
		cfg:     cfg,
		breaker: breaker,
		logger:  logger,
	}
}

// Initiate submits req, retrying transient failures.
func (r *ResilientProvider) Initiate(ctx context.Context, req BillingRequest) (Status, error) {
	return retry(ctx, r, "initiate", req.TransactionID, func(ctx context.Context) (Status, error) {
		return r.next.Initiate(ctx, req)
	})
}

// Status looks up id, retrying transient failures.
func (r *ResilientProvider) Status(ctx context.Context, id uuid.UUID) (Status, error) {
	return retry(ctx, r, "status", id, func(ctx context.Context) (Status, error) {
		return r.next.Status(ctx, id)
	})
}

// BreakerState exposes the breaker state for health reporting.
func (r *ResilientProvider) BreakerState() gobreaker.State {
	return r.breaker.State()
}

func retry(ctx context.Context, r *ResilientProvider, op string, id uuid.UUID, call func(context.Context) (Status, error)) (Status, error) {
	var status Status
	attempt := func() error {
		st, err := r.attempt(ctx, call)
		if err == nil {
			status = st
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err))
		}
		if !errors.Is(err, domain.ErrProviderUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialInterval
	b.MaxInterval = r.cfg.MaxInterval
	b.MaxElapsedTime = 0
	b.Reset()

	notify := func(err error, wait time.Duration) {
		r.logger.Info("retrying carrier provider call",
			zap.String("op", op),
			zap.String("transaction_id", id.String()),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	err := backoff.RetryNotify(attempt, backoff.WithContext(backoff.WithMaxRetries(b, r.cfg.MaxRetries), ctx), notify)
	if err != nil {
		return "", err
	}
	return status, nil
}

// attempt runs one call through the breaker under the per-attempt timeout.
func (r *ResilientProvider) attempt(ctx context.Context, call func(context.Context) (Status, error)) (Status, error) {
	res, err := r.breaker.Execute(func() (interface{}, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()

		st, err := call(attemptCtx)
		if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: provider call timed out after %s", domain.ErrProviderUnavailable, r.cfg.Timeout)
		}
		return st, err
	})
	if err != nil {
		return "", err
	}
	return res.(Status), nil
}
