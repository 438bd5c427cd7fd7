package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alexivanou/placematch-api/internal/model"
)

// Matcher produces normalized results for a place and a target region.
type Matcher interface {
	Match(ctx context.Context, place, region string) ([]model.NormalizedResult, error)
}

// Enricher attaches best-effort data to normalized results.
type Enricher interface {
	Enrich(ctx context.Context, results []model.NormalizedResult) []model.EnrichedResult
}

// Config holds service settings
type Config struct {
	Version string
	// Mode names the active completion provider in health payloads.
	Mode string
	// ConfigErr is returned by Match for valid requests when no matcher
	// could be built.
	ConfigErr error
}

// Service provides business logic for the API
type Service struct {
	matcher   Matcher
	enricher  Enricher
	cfg       Config
	validator *validator.Validate
	logger    *zap.Logger
}

// NewService creates a new service instance
func NewService(matcher Matcher, enricher Enricher, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Mode == "" {
		cfg.Mode = "unconfigured"
	}
	return &Service{
		matcher:   matcher,
		enricher:  enricher,
		cfg:       cfg,
		validator: newValidator(),
		logger:    logger.Named("service"),
	}
}

// Mode returns the completion provider name, or "unconfigured"
func (s *Service) Mode() string {
	return s.cfg.Mode
}
