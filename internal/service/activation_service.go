package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taxsync/internal/apperr"
	"taxsync/internal/model"
	"taxsync/internal/repository"
	"taxsync/internal/taxapi"

	"go.uber.org/zap"
)

const apiKeyTestPrefix = "taxify_api_key_test-"

// --- DTOs ---

type ActivationResult struct {
	KeyValid           bool `json:"key_valid"`
	BackfillScheduled  bool `json:"backfill_scheduled"`
	BackfillOrderCount int  `json:"backfill_order_count"`
}

// --- Interface ---

// ActivationService checks the configured credentials and, on the first
// valid activation, enqueues the historical backfill.
type ActivationService interface {
	Activate(ctx context.Context) (*ActivationResult, error)
}

type activationService struct {
	client    taxapi.Client
	scheduler RetryScheduler
	options   repository.OptionRepository
	log       *zap.Logger
	now       func() time.Time
}

func NewActivationService(client taxapi.Client, scheduler RetryScheduler, options repository.OptionRepository, log *zap.Logger) ActivationService {
	return &activationService{
		client:    client,
		scheduler: scheduler,
		options:   options,
		log:       log.Named("activation"),
		now:       time.Now,
	}
}

// --- Implementation ---

func (s *activationService) Activate(ctx context.Context) (*ActivationResult, error) {
	valid, err := s.checkKey(ctx)
	if err != nil {
		return nil, err
	}
	result := &ActivationResult{KeyValid: valid}
	if !valid {
		return result, nil
	}

	done, found, err := s.options.Get(ctx, model.OptionBulkBackfillScheduled)
	if err != nil {
		return nil, fmt.Errorf("read backfill flag: %w", err)
	}
	if found && done == "yes" {
		return result, nil
	}

	count, err := s.scheduler.ScheduleBulkBackfill(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.options.Set(ctx, model.OptionBulkBackfillScheduled, "yes"); err != nil {
		return nil, fmt.Errorf("store backfill flag: %w", err)
	}

	result.BackfillScheduled = true
	result.BackfillOrderCount = count
	return result, nil
}

// checkKey cancels a throwaway document; only a Success answer proves the key.
func (s *activationService) checkKey(ctx context.Context) (bool, error) {
	key := fmt.Sprintf("%s%d", apiKeyTestPrefix, s.now().Unix())
	_, err := s.client.CancelTax(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperr.ErrRemoteRejected):
		s.log.Warn("api key rejected", zap.Error(err))
		return false, nil
	default:
		return false, err
	}
}
