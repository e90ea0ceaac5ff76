package repository

import (
	"context"
	"errors"
	"fmt"

	"taxsync/internal/apperr"
	"taxsync/internal/model"

	"gorm.io/gorm"
)

type TaxStateRepository interface {
	Find(ctx context.Context, orderID int64) (*model.OrderTaxState, error)
	Save(ctx context.Context, state *model.OrderTaxState) error
	Delete(ctx context.Context, orderID int64) error
}

type taxStateRepository struct {
	db *gorm.DB
}

func NewTaxStateRepository(db *gorm.DB) TaxStateRepository {
	return &taxStateRepository{db: db}
}

func (r *taxStateRepository) Find(ctx context.Context, orderID int64) (*model.OrderTaxState, error) {
	var state model.OrderTaxState
	if err := GetDB(ctx, r.db).First(&state, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tax state of order %d: %w", orderID, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &state, nil
}

// Save inserts or fully overwrites the state row. Last writer wins.
func (r *taxStateRepository) Save(ctx context.Context, state *model.OrderTaxState) error {
	return GetDB(ctx, r.db).Save(state).Error
}

func (r *taxStateRepository) Delete(ctx context.Context, orderID int64) error {
	return GetDB(ctx, r.db).Where("order_id = ?", orderID).Delete(&model.OrderTaxState{}).Error
}
