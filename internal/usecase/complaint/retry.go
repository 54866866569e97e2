package complaint

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"civicdesk/internal/errs"
)

func (s *Service) newBackOff() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.retryInterval
	exp.MaxInterval = 20 * s.retryInterval
	if exp.MaxInterval <= 0 {
		exp.MaxInterval = time.Millisecond
	}
	return exp
}

// retryConflicts reruns op while it fails with a conflict_retryable error,
// at most attempts times in total. Other errors stop the loop immediately.
func retryConflicts[T any](ctx context.Context, b backoff.BackOff, attempts int, onRetry func(error), op func() (T, error)) (T, error) {
	tries := 0
	return backoff.Retry(ctx, func() (T, error) {
		tries++
		value, err := op()
		if err == nil {
			return value, nil
		}
		if errs.KindOf(err) != errs.KindConflict {
			return value, backoff.Permanent(err)
		}
		if tries < attempts && onRetry != nil {
			onRetry(err)
		}
		return value, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(attempts)))
}
