package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taxsync/internal/apperr"
	"taxsync/internal/metrics"
	"taxsync/internal/model"
	"taxsync/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MissedOrderRetryDelay = time.Hour
	BulkBackfillWindow    = 13 // months
	BulkBackfillStagger   = 5 * time.Second
)

// --- DTOs ---

type RetryPage struct {
	Retries []model.ScheduledRetry `json:"retries"`
	Total   int64                  `json:"total"`
	Page    int                    `json:"page"`
	Limit   int                    `json:"limit"`
}

// --- Interface ---

// RetryScheduler books durable, deduplicated re-runs of lifecycle work.
type RetryScheduler interface {
	// Schedule returns false when a pending entry for (hook, orderID) already exists.
	Schedule(ctx context.Context, fireAt time.Time, hook string, orderID int64) (bool, error)
	Unschedule(ctx context.Context, hook string, orderID int64) error
	UnscheduleAll(ctx context.Context, orderID int64) error
	DueRetries(ctx context.Context, now time.Time, limit int) ([]model.ScheduledRetry, error)
	// Claim returns false when the entry is no longer pending.
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	ScheduleMissedOrder(ctx context.Context, orderID int64) (bool, error)
	ScheduleBulkBackfill(ctx context.Context) (int, error)
	List(ctx context.Context, status string, page, limit int) (*RetryPage, error)
}

type RetrySchedulerDeps struct {
	Retries   repository.RetryRepository
	Orders    repository.OrderRepository
	TaxStates repository.TaxStateRepository
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Clock     func() time.Time
}

type retryScheduler struct {
	retries   repository.RetryRepository
	orders    repository.OrderRepository
	taxStates repository.TaxStateRepository
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
}

func NewRetryScheduler(deps RetrySchedulerDeps) RetryScheduler {
	s := &retryScheduler{
		retries:   deps.Retries,
		orders:    deps.Orders,
		taxStates: deps.TaxStates,
		metrics:   deps.Metrics,
		log:       deps.Logger,
		now:       deps.Clock,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// --- Implementation ---

func (s *retryScheduler) Schedule(ctx context.Context, fireAt time.Time, hook string, orderID int64) (bool, error) {
	switch hook {
	case model.HookBulkBackfill, model.HookMissedOrderRetry:
	default:
		return false, fmt.Errorf("unknown retry hook %q: %w", hook, apperr.ErrInvalidRequest)
	}

	pending, err := s.retries.FindPending(ctx, hook, orderID)
	if err != nil {
		return false, fmt.Errorf("find pending retry: %w", err)
	}
	if pending != nil {
		return false, nil
	}

	retry := &model.ScheduledRetry{
		ID:      uuid.New(),
		Hook:    hook,
		OrderID: orderID,
		FireAt:  fireAt,
		Status:  model.RetryPending,
	}
	if err := s.retries.Create(ctx, retry); err != nil {
		// Lost a race against another writer; the unique index kept one entry.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("create retry: %w", err)
	}

	s.metrics.RetryScheduled(hook)
	s.log.Debug("retry scheduled", zap.String("hook", hook), zap.Int64("order_id", orderID), zap.Time("fire_at", fireAt))
	return true, nil
}

func (s *retryScheduler) Unschedule(ctx context.Context, hook string, orderID int64) error {
	if err := s.retries.CancelPending(ctx, hook, orderID); err != nil {
		return fmt.Errorf("cancel retry: %w", err)
	}
	return nil
}

func (s *retryScheduler) UnscheduleAll(ctx context.Context, orderID int64) error {
	if err := s.retries.CancelAllForOrder(ctx, orderID); err != nil {
		return fmt.Errorf("cancel retries for order %d: %w", orderID, err)
	}
	return nil
}

func (s *retryScheduler) DueRetries(ctx context.Context, now time.Time, limit int) ([]model.ScheduledRetry, error) {
	due, err := s.retries.ListDue(ctx, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due retries: %w", err)
	}
	return due, nil
}

// Claim takes an entry out of the pending set so the same (hook, order)
// can be scheduled again while it runs. Only one caller wins a given entry.
func (s *retryScheduler) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := s.retries.Claim(ctx, id)
	if err != nil {
		return false, fmt.Errorf("claim retry %s: %w", id, err)
	}
	return ok, nil
}

// ScheduleMissedOrder books a missed_order_retry one hour out, unless the
// order no longer exists.
func (s *retryScheduler) ScheduleMissedOrder(ctx context.Context, orderID int64) (bool, error) {
	exists, err := s.orders.Exists(ctx, orderID)
	if err != nil {
		return false, fmt.Errorf("check order %d: %w", orderID, err)
	}
	if !exists {
		return false, fmt.Errorf("order %d: %w", orderID, apperr.ErrStaleReference)
	}
	return s.Schedule(ctx, s.now().Add(MissedOrderRetryDelay), model.HookMissedOrderRetry, orderID)
}

// ScheduleBulkBackfill enqueues every uncommitted, not fully refunded order
// completed in the backfill window, BulkBackfillStagger apart.
func (s *retryScheduler) ScheduleBulkBackfill(ctx context.Context) (int, error) {
	now := s.now()
	orders, err := s.orders.ListCompletedSince(ctx, now.AddDate(0, -BulkBackfillWindow, 0))
	if err != nil {
		return 0, fmt.Errorf("list completed orders: %w", err)
	}

	scheduled := 0
	for i := range orders {
		order := &orders[i]
		if order.FullyRefunded() {
			continue
		}

		state, err := s.taxStates.Find(ctx, order.ID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return scheduled, fmt.Errorf("load tax state for order %d: %w", order.ID, err)
		}
		if state != nil && state.IsCommitted {
			continue
		}

		fireAt := now.Add(time.Duration(scheduled+1) * BulkBackfillStagger)
		ok, err := s.Schedule(ctx, fireAt, model.HookBulkBackfill, order.ID)
		if err != nil {
			return scheduled, err
		}
		if ok {
			scheduled++
		}
	}

	s.log.Info("bulk backfill scheduled", zap.Int("orders", scheduled))
	return scheduled, nil
}

func (s *retryScheduler) List(ctx context.Context, status string, page, limit int) (*RetryPage, error) {
	retries, total, err := s.retries.List(ctx, status, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list retries: %w", err)
	}
	return &RetryPage{Retries: retries, Total: total, Page: page, Limit: limit}, nil
}
