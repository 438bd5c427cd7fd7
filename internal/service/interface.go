package service

import (
	"context"

	"github.com/alexivanou/placematch-api/internal/model"
)

// ServiceInterface defines the service interface for testing
type ServiceInterface interface {
	Match(ctx context.Context, req model.MatchRequest) (*model.MatchResponse, error)
	Mode() string
}
