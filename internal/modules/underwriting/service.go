// Package underwriting orchestrates the submission pipeline: optional
// enhancement, class dispatch to a risk calculator, and basket allocation.
package underwriting

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aquifer-fi/aquifer/internal/domain"
	"github.com/aquifer-fi/aquifer/internal/modules/baskets"
	"github.com/aquifer-fi/aquifer/internal/modules/enhance"
	"github.com/aquifer-fi/aquifer/internal/modules/scoring"
)

// Result is the outcome of processing one submission
type Result struct {
	AssetID    string                `json:"asset_id"`
	Assessment domain.RiskAssessment `json:"assessment"`
	Assignment *baskets.Assignment   `json:"assignment,omitempty"`
	Enhanced   bool                  `json:"enhanced"`
}

// Service runs submissions through enhancement, scoring and allocation.
// Scoring is pure, so the service is safe for unbounded parallel use; all
// shared state lives behind the allocator's own serialization.
type Service struct {
	registry  *scoring.Registry
	allocator *baskets.Allocator
	enhancer  enhance.Enhancer
	log       zerolog.Logger
}

// NewService creates an underwriting service
func NewService(
	registry *scoring.Registry,
	allocator *baskets.Allocator,
	enhancer enhance.Enhancer,
	log zerolog.Logger,
) *Service {
	if enhancer == nil {
		enhancer = enhance.NewNoop()
	}
	return &Service{
		registry:  registry,
		allocator: allocator,
		enhancer:  enhancer,
		log:       log.With().Str("service", "underwriting").Logger(),
	}
}

// Score validates and scores a submission without allocating it.
// Enhancement failures are recovered by scoring the raw input.
func (s *Service) Score(ctx context.Context, sub domain.AssetSubmission) (domain.RiskAssessment, bool, error) {
	if err := sub.Validate(); err != nil {
		return domain.RiskAssessment{}, false, err
	}

	enhanced := false
	if _, isNoop := s.enhancer.(*enhance.Noop); !isNoop {
		attrs, err := s.enhancer.Enhance(ctx, sub.Class, sub.Attributes)
		if err != nil {
			// Enhancement is advisory: fall back to the raw submission
			s.log.Warn().Err(err).Str("class", string(sub.Class)).
				Msg("Enhancement unavailable, scoring raw input")
		} else {
			sub = domain.AssetSubmission{Class: sub.Class, Amount: sub.Amount, Attributes: attrs}
			enhanced = true
		}
	}

	assessment, err := s.registry.Compute(sub)
	if err != nil {
		return domain.RiskAssessment{}, false, err
	}
	return assessment, enhanced, nil
}

// Process scores a submission and allocates it into a basket
func (s *Service) Process(ctx context.Context, sub domain.AssetSubmission, assetID string) (*Result, error) {
	assessment, enhanced, err := s.Score(ctx, sub)
	if err != nil {
		return nil, err
	}

	assignment, err := s.allocator.Assign(assessment, sub.Amount, assetID)
	if err != nil {
		return nil, err
	}

	return &Result{
		AssetID:    assetID,
		Assessment: assessment,
		Assignment: assignment,
		Enhanced:   enhanced,
	}, nil
}
