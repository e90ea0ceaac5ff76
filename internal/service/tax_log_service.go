package service

import (
	"context"
	"fmt"
	"time"

	"taxsync/internal/apperr"
	"taxsync/internal/model"
	"taxsync/internal/repository"

	"go.uber.org/zap"
)

// --- DTOs ---

type TaxLogPage struct {
	Entries []model.TaxLogEntry `json:"entries"`
	Total   int64               `json:"total"`
	Page    int                 `json:"page"`
	Limit   int                 `json:"limit"`
}

// --- Interface ---

// LogPublisher pushes a debug log entry to live subscribers.
type LogPublisher interface {
	Publish(v any)
}

// TaxLogService is the admin-facing debug log. Every line goes to zap; when
// debug logging is enabled it is also stored and streamed.
type TaxLogService interface {
	Notice(ctx context.Context, orderID int64, msg string)
	Error(ctx context.Context, orderID int64, msg string, err error)
	List(ctx context.Context, orderID *int64, page, limit int) (*TaxLogPage, error)
}

type taxLogService struct {
	repo      repository.TaxLogRepository
	publisher LogPublisher
	log       *zap.Logger
	enabled   bool
	now       func() time.Time
}

func NewTaxLogService(repo repository.TaxLogRepository, publisher LogPublisher, log *zap.Logger, enabled bool) TaxLogService {
	return &taxLogService{
		repo:      repo,
		publisher: publisher,
		log:       log.Named("taxlog"),
		enabled:   enabled,
		now:       time.Now,
	}
}

// --- Implementation ---

func (s *taxLogService) Notice(ctx context.Context, orderID int64, msg string) {
	s.log.Info(msg, zap.Int64("order_id", orderID))
	s.record(ctx, orderID, model.LogLevelNotice, msg, "")
}

func (s *taxLogService) Error(ctx context.Context, orderID int64, msg string, err error) {
	kind := apperr.Kind(err)
	s.log.Warn(msg, zap.Int64("order_id", orderID), zap.String("kind", kind), zap.Error(err))
	if err != nil {
		msg = fmt.Sprintf("TAXIFY ERROR: %s: %v", msg, err)
	}
	s.record(ctx, orderID, model.LogLevelError, msg, kind)
}

func (s *taxLogService) List(ctx context.Context, orderID *int64, page, limit int) (*TaxLogPage, error) {
	entries, total, err := s.repo.List(ctx, orderID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list tax log: %w", err)
	}
	return &TaxLogPage{Entries: entries, Total: total, Page: page, Limit: limit}, nil
}

// record never fails the caller; a broken debug log only shows up in zap.
func (s *taxLogService) record(ctx context.Context, orderID int64, level, msg, kind string) {
	if !s.enabled {
		return
	}

	entry := &model.TaxLogEntry{Level: level, Message: msg, Kind: kind, CreatedAt: s.now()}
	if orderID != 0 {
		id := orderID
		entry.OrderID = &id
	}

	if s.repo != nil {
		if err := s.repo.Log(ctx, entry); err != nil {
			s.log.Error("failed to persist tax log entry", zap.Error(err))
		}
	}
	if s.publisher != nil {
		s.publisher.Publish(entry)
	}
}
