package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alexivanou/placematch-api/internal/model"
)

const noResultsNote = "No usable matches were returned; try a more specific place or region."

// ErrInvalidRequest marks input validation failures.
var ErrInvalidRequest = errors.New("invalid request")

// errUnconfigured is used when neither a matcher nor a configuration error
// was supplied.
var errUnconfigured = errors.New("matching provider is not configured")

// Match validates the request, asks the matcher for candidates and enriches
// them. Validation happens before any upstream call.
func (s *Service) Match(ctx context.Context, req model.MatchRequest) (*model.MatchResponse, error) {
	place := strings.TrimSpace(req.Place)
	region := strings.TrimSpace(req.Region)
	if err := s.validate(model.MatchRequest{Place: place, Region: region}); err != nil {
		return nil, err
	}

	if s.matcher == nil {
		if s.cfg.ConfigErr != nil {
			return nil, s.cfg.ConfigErr
		}
		return nil, errUnconfigured
	}

	results, err := s.matcher.Match(ctx, place, region)
	if err != nil {
		return nil, fmt.Errorf("failed to match places: %w", err)
	}

	resp := &model.MatchResponse{
		OK:      true,
		Place:   place,
		Region:  region,
		Results: []model.EnrichedResult{},
		Version: s.cfg.Version,
	}
	if len(results) == 0 {
		resp.Note = noResultsNote
		s.logger.Info("No matches", zap.String("place", place), zap.String("region", region))
		return resp, nil
	}

	if s.enricher != nil {
		resp.Results = s.enricher.Enrich(ctx, results)
	} else {
		for _, r := range results {
			resp.Results = append(resp.Results, model.EnrichedResult{NormalizedResult: r})
		}
	}

	s.logger.Info("Matched places",
		zap.String("place", place),
		zap.String("region", region),
		zap.Int("results", len(resp.Results)),
	)
	return resp, nil
}

// validate checks the trimmed request against its validate tags. Both
// fields missing is reported as one message.
func (s *Service) validate(req model.MatchRequest) error {
	err := s.validator.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var missing []string
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}
	switch {
	case len(missing) == 2:
		return fmt.Errorf("%w: %s and %s are required", ErrInvalidRequest, missing[0], missing[1])
	case len(missing) == 1:
		return fmt.Errorf("%w: %s is required", ErrInvalidRequest, missing[0])
	}

	fe := fieldErrs[0]
	if fe.Tag() == "max" {
		return fmt.Errorf("%w: %s must be at most %s characters", ErrInvalidRequest, fe.Field(), fe.Param())
	}
	return fmt.Errorf("%w: %s is invalid", ErrInvalidRequest, fe.Field())
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}
