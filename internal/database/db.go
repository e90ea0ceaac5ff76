package database

import (
	"fmt"

	"taxsync/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewConnection initializes a new connection pool using GORM and migrates the engine's tables
func NewConnection(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.AutoMigrate(
		&model.Order{},
		&model.OrderItem{},
		&model.Refund{},
		&model.Customer{},
		&model.Product{},
		&model.OrderTaxState{},
		&model.ScheduledRetry{},
		&model.Option{},
		&model.TaxLogEntry{},
	)
	if err != nil {
		log.Warn("failed to auto-migrate models", zap.Error(err))
	}

	return db, nil
}
