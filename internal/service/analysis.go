package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/shadoom/entitlement-server-go/internal/analyzer"
	apperrors "github.com/shadoom/entitlement-server-go/internal/errors"
	"github.com/shadoom/entitlement-server-go/internal/model"
	"github.com/shadoom/entitlement-server-go/internal/util"
)

// AnalysisService fronts the profile analyzer. Analysis is a premium
// capability and never touches the idea counter.
type AnalysisService struct {
	entitlements *EntitlementService
	engine       analyzer.Analyzer
}

func NewAnalysisService(entitlements *EntitlementService, engine analyzer.Analyzer) *AnalysisService {
	return &AnalysisService{entitlements: entitlements, engine: engine}
}

func (s *AnalysisService) Analyze(ctx context.Context, account *model.Account, platform model.Platform, handle string) (*model.ProfileAnalysis, error) {
	if err := s.entitlements.Authorize(account, model.CapabilityAnalyzeProfile); err != nil {
		return nil, err
	}

	if !platform.Valid() {
		return nil, apperrors.InvalidInput("platform", "must be instagram, tiktok or kwai")
	}
	handle = util.NormalizeHandle(handle)
	if handle == "" {
		return nil, apperrors.MissingRequired("handle")
	}

	analysis, err := s.engine.Analyze(ctx, platform, handle)
	if err != nil {
		log.Error().Err(err).
			Str("accountId", account.ID).
			Str("platform", string(platform)).
			Msg("profile analysis failed")
		return nil, apperrors.UpstreamUnavailable("profile analysis", err)
	}

	log.Info().
		Str("accountId", account.ID).
		Str("platform", string(platform)).
		Str("handle", handle).
		Msg("profile analyzed")

	return analysis, nil
}
