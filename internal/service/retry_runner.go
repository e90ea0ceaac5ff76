package service

import (
	"context"
	"fmt"
	"time"

	"taxsync/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultRetryBatch = 50

// --- DTOs ---

type RunSummary struct {
	Due       int `json:"due"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// --- Interface ---

// RetryRunner executes due retries one at a time, paced by a rate limiter.
type RetryRunner interface {
	RunDue(ctx context.Context) (*RunSummary, error)
}

type retryRunner struct {
	scheduler RetryScheduler
	lifecycle OrderTaxLifecycle
	limiter   *rate.Limiter
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
	batch     int
}

// NewRetryRunner paces remote work at ratePerSec retries per second.
func NewRetryRunner(scheduler RetryScheduler, lifecycle OrderTaxLifecycle, ratePerSec float64, m *metrics.Metrics, log *zap.Logger) RetryRunner {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	return &retryRunner{
		scheduler: scheduler,
		lifecycle: lifecycle,
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), 1),
		metrics:   m,
		log:       log.Named("retry"),
		now:       time.Now,
		batch:     defaultRetryBatch,
	}
}

// --- Implementation ---

func (r *retryRunner) RunDue(ctx context.Context) (*RunSummary, error) {
	due, err := r.scheduler.DueRetries(ctx, r.now(), r.batch)
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{Due: len(due)}
	for _, retry := range due {
		if err := r.limiter.Wait(ctx); err != nil {
			return summary, fmt.Errorf("wait for rate limiter: %w", err)
		}

		// Leave the pending set first, so a failing run can book its successor.
		claimed, err := r.scheduler.Claim(ctx, retry.ID)
		if err != nil {
			return summary, err
		}
		if !claimed {
			summary.Skipped++
			r.log.Debug("retry already claimed",
				zap.String("hook", retry.Hook),
				zap.Int64("order_id", retry.OrderID))
			continue
		}
		r.metrics.RetryFired(retry.Hook)

		res, err := r.lifecycle.Dispatch(ctx, Event{Type: EventRetryFired, OrderID: retry.OrderID})
		if err != nil {
			summary.Failed++
			r.log.Error("retry failed",
				zap.String("hook", retry.Hook),
				zap.Int64("order_id", retry.OrderID),
				zap.Error(err))
			continue
		}

		summary.Completed++
		r.log.Info("retry fired",
			zap.String("hook", retry.Hook),
			zap.Int64("order_id", retry.OrderID),
			zap.String("action", res.Action))
	}
	return summary, nil
}
