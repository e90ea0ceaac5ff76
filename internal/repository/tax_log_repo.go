package repository

import (
	"context"

	"taxsync/internal/model"

	"gorm.io/gorm"
)

type TaxLogRepository interface {
	Log(ctx context.Context, entry *model.TaxLogEntry) error
	List(ctx context.Context, orderID *int64, page, limit int) ([]model.TaxLogEntry, int64, error)
}

type taxLogRepository struct {
	db *gorm.DB
}

func NewTaxLogRepository(db *gorm.DB) TaxLogRepository {
	return &taxLogRepository{db: db}
}

func (r *taxLogRepository) Log(ctx context.Context, entry *model.TaxLogEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *taxLogRepository) List(ctx context.Context, orderID *int64, page, limit int) ([]model.TaxLogEntry, int64, error) {
	var logs []model.TaxLogEntry
	var total int64

	db := GetDB(ctx, r.db).Model(&model.TaxLogEntry{})
	if orderID != nil {
		db = db.Where("order_id = ?", *orderID)
	}
	db = db.Session(&gorm.Session{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
