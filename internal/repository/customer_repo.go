package repository

import (
	"context"
	"errors"
	"fmt"

	"taxsync/internal/apperr"
	"taxsync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerRepository interface {
	Upsert(ctx context.Context, customer *model.Customer) error
	FindByID(ctx context.Context, id int64) (*model.Customer, error)
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Upsert(ctx context.Context, customer *model.Customer) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{UpdateAll: true}).Create(customer).Error
}

func (r *customerRepository) FindByID(ctx context.Context, id int64) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer %d: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &customer, nil
}
