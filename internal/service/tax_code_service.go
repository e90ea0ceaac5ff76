package service

import (
	"context"
	"encoding/json"
	"fmt"

	"taxsync/internal/config"
	"taxsync/internal/model"
	"taxsync/internal/repository"
	"taxsync/internal/taxapi"

	"go.uber.org/zap"
)

// --- DTOs ---

type TaxCodesResponse struct {
	Codes  []string `json:"codes"`
	Source string   `json:"source"` // config, cache or remote
}

type VersionResponse struct {
	Version string `json:"version"`
}

// --- Interface ---

// TaxCodeService exposes the item taxability codes and the remote
// address and version helpers used by admins.
type TaxCodeService interface {
	List(ctx context.Context, refresh bool) (*TaxCodesResponse, error)
	VerifyAddress(ctx context.Context, addr taxapi.Address) (*taxapi.AddressResult, error)
	Version(ctx context.Context) (*VersionResponse, error)
}

type taxCodeService struct {
	client   taxapi.Client
	options  repository.OptionRepository
	settings config.StoreSettings
	log      *zap.Logger
}

func NewTaxCodeService(client taxapi.Client, options repository.OptionRepository, settings config.StoreSettings, log *zap.Logger) TaxCodeService {
	return &taxCodeService{client: client, options: options, settings: settings, log: log.Named("taxcodes")}
}

// --- Implementation ---

func (s *taxCodeService) List(ctx context.Context, refresh bool) (*TaxCodesResponse, error) {
	if len(s.settings.TaxClasses) > 0 {
		return &TaxCodesResponse{Codes: s.settings.TaxClasses, Source: "config"}, nil
	}

	if !refresh {
		raw, found, err := s.options.Get(ctx, model.OptionTaxClasses)
		if err != nil {
			return nil, fmt.Errorf("read cached codes: %w", err)
		}
		if found {
			var codes []string
			if err := json.Unmarshal([]byte(raw), &codes); err == nil {
				return &TaxCodesResponse{Codes: codes, Source: "cache"}, nil
			}
			s.log.Warn("discarding unreadable cached tax codes")
		}
	}

	codes, err := s.client.GetCodes(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(codes)
	if err != nil {
		return nil, fmt.Errorf("encode codes: %w", err)
	}
	if err := s.options.Set(ctx, model.OptionTaxClasses, string(raw)); err != nil {
		return nil, fmt.Errorf("cache codes: %w", err)
	}
	return &TaxCodesResponse{Codes: codes, Source: "remote"}, nil
}

func (s *taxCodeService) VerifyAddress(ctx context.Context, addr taxapi.Address) (*taxapi.AddressResult, error) {
	return s.client.VerifyAddress(ctx, addr)
}

func (s *taxCodeService) Version(ctx context.Context) (*VersionResponse, error) {
	v, err := s.client.GetVersion(ctx)
	if err != nil {
		return nil, err
	}
	return &VersionResponse{Version: v}, nil
}
