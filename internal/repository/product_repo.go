package repository

import (
	"context"

	"taxsync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Upsert(ctx context.Context, products []model.Product) error
	FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Upsert(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{UpdateAll: true}).Create(&products).Error
}

// FindByIDs loads the given products keyed by id. Unknown ids are absent from the map.
func (r *productRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	result := make(map[int64]model.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var products []model.Product
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}
