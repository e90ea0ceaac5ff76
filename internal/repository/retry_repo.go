package repository

import (
	"context"
	"errors"
	"time"

	"taxsync/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RetryRepository interface {
	Create(ctx context.Context, retry *model.ScheduledRetry) error
	FindPending(ctx context.Context, hook string, orderID int64) (*model.ScheduledRetry, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.ScheduledRetry, error)
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	CancelPending(ctx context.Context, hook string, orderID int64) error
	CancelAllForOrder(ctx context.Context, orderID int64) error
	List(ctx context.Context, status string, page, limit int) ([]model.ScheduledRetry, int64, error)
}

type retryRepository struct {
	db *gorm.DB
}

func NewRetryRepository(db *gorm.DB) RetryRepository {
	return &retryRepository{db: db}
}

func (r *retryRepository) Create(ctx context.Context, retry *model.ScheduledRetry) error {
	return GetDB(ctx, r.db).Create(retry).Error
}

// FindPending returns nil, nil when no pending entry exists.
func (r *retryRepository) FindPending(ctx context.Context, hook string, orderID int64) (*model.ScheduledRetry, error) {
	var retry model.ScheduledRetry
	err := GetDB(ctx, r.db).
		Where("hook = ? AND order_id = ? AND status = ?", hook, orderID, model.RetryPending).
		First(&retry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &retry, nil
}

func (r *retryRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]model.ScheduledRetry, error) {
	var retries []model.ScheduledRetry
	if err := GetDB(ctx, r.db).
		Where("status = ? AND fire_at <= ?", model.RetryPending, now).
		Order("fire_at ASC").
		Limit(limit).
		Find(&retries).Error; err != nil {
		return nil, err
	}
	return retries, nil
}

// Claim moves a pending entry to DONE. It reports false when another
// runner got there first or the entry was cancelled.
func (r *retryRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.ScheduledRetry{}).
		Where("id = ? AND status = ?", id, model.RetryPending).
		Update("status", model.RetryDone)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *retryRepository) CancelPending(ctx context.Context, hook string, orderID int64) error {
	return GetDB(ctx, r.db).Model(&model.ScheduledRetry{}).
		Where("hook = ? AND order_id = ? AND status = ?", hook, orderID, model.RetryPending).
		Update("status", model.RetryCancelled).Error
}

func (r *retryRepository) CancelAllForOrder(ctx context.Context, orderID int64) error {
	return GetDB(ctx, r.db).Model(&model.ScheduledRetry{}).
		Where("order_id = ? AND status = ?", orderID, model.RetryPending).
		Update("status", model.RetryCancelled).Error
}

// List pages through retries, optionally filtered by status.
func (r *retryRepository) List(ctx context.Context, status string, page, limit int) ([]model.ScheduledRetry, int64, error) {
	var retries []model.ScheduledRetry
	var total int64

	db := GetDB(ctx, r.db).Model(&model.ScheduledRetry{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	db = db.Session(&gorm.Session{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("fire_at ASC").Offset(offset).Limit(limit).Find(&retries).Error; err != nil {
		return nil, 0, err
	}

	return retries, total, nil
}
