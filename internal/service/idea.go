package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/shadoom/entitlement-server-go/internal/config"
	apperrors "github.com/shadoom/entitlement-server-go/internal/errors"
	"github.com/shadoom/entitlement-server-go/internal/generator"
	"github.com/shadoom/entitlement-server-go/internal/model"
	"github.com/shadoom/entitlement-server-go/internal/repository"
	"github.com/shadoom/entitlement-server-go/internal/sse"
)

// EventPublisher pushes account-scoped events onto the SSE stream.
// *sse.Broker satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, accountID string, event sse.Event) error
}

// IdeaService owns the generate/list/delete flow around ideas. Generation
// composes the entitlement check, the quota consume, the generative engine
// call, and persistence, in that order; an engine failure after a
// successful consume is compensated with a refund.
type IdeaService struct {
	ideaRepo     repository.IdeaRepository
	quota        *QuotaService
	entitlements *EntitlementService
	engine       generator.Generator
	events       EventPublisher
	ideaCount    int
}

func NewIdeaService(
	ideaRepo repository.IdeaRepository,
	quota *QuotaService,
	entitlements *EntitlementService,
	engine generator.Generator,
	events EventPublisher,
	ideaCount int,
) *IdeaService {
	if ideaCount <= 0 {
		ideaCount = 5
	}
	return &IdeaService{
		ideaRepo:     ideaRepo,
		quota:        quota,
		entitlements: entitlements,
		engine:       engine,
		events:       events,
		ideaCount:    ideaCount,
	}
}

// Generate produces and persists ideas for a topic. One generate request
// consumes one unit of quota regardless of how many ideas it yields. A
// count outside 1..ideaCount falls back to the configured default.
func (s *IdeaService) Generate(ctx context.Context, account *model.Account, topic string, count int) ([]model.Idea, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, apperrors.MissingRequired("topic")
	}
	if count <= 0 || count > s.ideaCount {
		count = s.ideaCount
	}

	if err := s.entitlements.Authorize(account, model.CapabilityGenerateIdea); err != nil {
		return nil, err
	}

	consumed, err := s.quota.TryConsume(ctx, account.ID, 1)
	if err != nil {
		return nil, err
	}

	drafts, err := s.engine.Generate(ctx, topic, count)
	if err != nil {
		// The consume paid for work that was never delivered; give it back.
		s.quota.Refund(ctx, consumed, 1)
		log.Error().Err(err).
			Str("accountId", account.ID).
			Str("topic", topic).
			Msg("generative engine failed, quota refunded")
		return nil, apperrors.UpstreamUnavailable("generative engine", err)
	}

	ideas := make([]model.Idea, 0, len(drafts))
	for _, draft := range drafts {
		idea, err := s.ideaRepo.Create(ctx, model.CreateIdeaParams{
			AccountID:   account.ID,
			Topic:       topic,
			ContentType: draft.ContentType,
			Title:       draft.Title,
			Script:      draft.Script,
			Hashtags:    draft.Hashtags,
		})
		if err != nil {
			return nil, apperrors.Database(err)
		}
		ideas = append(ideas, *idea)
	}

	log.Info().
		Str("accountId", account.ID).
		Str("topic", topic).
		Int("count", len(ideas)).
		Msg("ideas generated")

	if s.events != nil {
		event := sse.NewEvent(sse.EventIdeasGenerated, map[string]any{
			"topic": topic,
			"count": len(ideas),
		})
		if err := s.events.Publish(ctx, account.ID, event); err != nil {
			log.Warn().Err(err).Str("accountId", account.ID).Msg("failed to publish ideas event")
		}
	}

	return ideas, nil
}

func (s *IdeaService) List(ctx context.Context, accountID string) ([]model.Idea, error) {
	ideas, err := s.ideaRepo.FindByAccountID(ctx, accountID, config.IdeaListLimit)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return ideas, nil
}

// Delete removes an idea, owner-only.
func (s *IdeaService) Delete(ctx context.Context, account *model.Account, ideaID string) error {
	idea, err := s.ideaRepo.FindByID(ctx, ideaID)
	if err != nil {
		return apperrors.Database(err)
	}
	if idea == nil {
		return apperrors.NotFound("Idea")
	}

	if err := s.entitlements.CanDeleteIdea(account, idea); err != nil {
		return err
	}

	if err := s.ideaRepo.Delete(ctx, ideaID); err != nil {
		return apperrors.Database(err)
	}

	log.Info().
		Str("accountId", account.ID).
		Str("ideaId", ideaID).
		Msg("idea deleted")

	return nil
}
