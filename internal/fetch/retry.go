package fetch

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"transferScan/internal/model"
)

// Retrying wraps a Fetcher with exponential backoff. ErrExhausted and
// context errors are returned immediately.
type Retrying struct {
	next       Fetcher
	maxRetries int
	baseDelay  time.Duration
	logger     *zap.Logger
}

func NewRetrying(next Fetcher, maxRetries int, baseDelay time.Duration, logger *zap.Logger) *Retrying {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrying{next: next, maxRetries: maxRetries, baseDelay: baseDelay, logger: logger}
}

func (r *Retrying) Fetch(ctx context.Context, q model.Query) (*model.Page, error) {
	var page *model.Page
	err := withRetry(ctx, r.maxRetries, r.baseDelay, func(ctx context.Context) error {
		var err error
		page, err = r.next.Fetch(ctx, q)
		if err != nil && retryable(err) {
			r.logger.Warn("fetch page failed", zap.Error(err), zap.Uint64("from", q.FromBlock))
		}
		return err
	})
	return page, err
}

func retryable(err error) bool {
	return !errors.Is(err, ErrExhausted) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil || !retryable(err) {
			return err
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
