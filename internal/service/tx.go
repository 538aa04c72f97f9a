package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dtroode/vkn-server/internal/model"
)

// ErrRetriesExhausted is returned when a transaction kept conflicting after all retries.
var ErrRetriesExhausted = errors.New("transaction retries exhausted")

// RetryPolicy bounds retries of conflicting transactions.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx)
}

// WithRetryableTx runs body inside a transaction and retries the whole transaction on model.ErrTxConflict.
// Any other error aborts immediately and is returned unchanged.
func WithRetryableTx[T any](
	ctx context.Context,
	tx model.Transactor,
	policy RetryPolicy,
	body func(ctx context.Context, users model.UserStore) (T, error),
) (T, error) {
	var result T

	operation := func() error {
		err := tx.InTx(ctx, func(ctx context.Context, users model.UserStore) error {
			var err error
			result, err = body(ctx, users)
			return err
		})
		if err == nil || errors.Is(err, model.ErrTxConflict) {
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(operation, policy.backOff(ctx)); err != nil {
		var zero T
		if errors.Is(err, model.ErrTxConflict) {
			return zero, fmt.Errorf("%w: %w", ErrRetriesExhausted, err)
		}
		return zero, err
	}

	return result, nil
}
