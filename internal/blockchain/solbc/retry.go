package solbc

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/errs"
)

const (
	DefaultMaxTries        = 5
	DefaultInitialInterval = 200 * time.Millisecond
	DefaultMaxInterval     = 2 * time.Second
)

// RetryConfig задает политику повторов для чтений.
type RetryConfig struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (r RetryConfig) withDefaults() RetryConfig {
	if r.MaxTries == 0 {
		r.MaxTries = DefaultMaxTries
	}
	if r.InitialInterval <= 0 {
		r.InitialInterval = DefaultInitialInterval
	}
	if r.MaxInterval < r.InitialInterval {
		r.MaxInterval = max(DefaultMaxInterval, r.InitialInterval)
	}
	return r
}

// withRetry выполняет идемпотентное чтение с экспоненциальным backoff.
// "Не найдено" и отмена контекста не повторяются.
func withRetry[T any](ctx context.Context, c *Client, method string, op func(context.Context) (T, error)) (T, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.opts.Retry.InitialInterval
	policy.MaxInterval = c.opts.Retry.MaxInterval

	notify := func(err error, d time.Duration) {
		c.metrics.RecordRPCRetry(method)
		c.logger.Debug("Повтор RPC-запроса после ошибки",
			zap.String("method", method),
			zap.Duration("backoff", d),
			zap.Error(err))
	}

	operation := func() (T, error) {
		start := time.Now()
		res, err := op(ctx)
		c.metrics.RecordRPCLatency(method, time.Since(start))
		switch {
		case err == nil:
			return res, nil
		case errors.Is(err, rpc.ErrNotFound), accountMissing(err):
			var zero T
			return zero, backoff.Permanent(errs.E("solbc."+method, errs.KindNotFound, err))
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			var zero T
			return zero, backoff.Permanent(err)
		}
		return res, err
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.opts.Retry.MaxTries),
		backoff.WithNotify(notify))
}
