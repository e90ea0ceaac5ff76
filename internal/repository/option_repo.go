package repository

import (
	"context"
	"errors"

	"taxsync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OptionRepository interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Set(ctx context.Context, name, value string) error
}

type optionRepository struct {
	db *gorm.DB
}

func NewOptionRepository(db *gorm.DB) OptionRepository {
	return &optionRepository{db: db}
}

func (r *optionRepository) Get(ctx context.Context, name string) (string, bool, error) {
	var opt model.Option
	err := GetDB(ctx, r.db).First(&opt, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return opt.Value, true, nil
}

func (r *optionRepository) Set(ctx context.Context, name, value string) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model.Option{Name: name, Value: value}).Error
}
