package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/shadoom/entitlement-server-go/internal/audit"
	"github.com/shadoom/entitlement-server-go/internal/config"
	apperrors "github.com/shadoom/entitlement-server-go/internal/errors"
	"github.com/shadoom/entitlement-server-go/internal/model"
	"github.com/shadoom/entitlement-server-go/internal/repository"
)

// QuotaService is the quota gate. It enforces the free-plan numeric cap
// once entitlement has been established; it does not decide whether the
// caller may attempt the action at all.
type QuotaService struct {
	accountRepo repository.AccountRepository
	limit       int
}

func NewQuotaService(accountRepo repository.AccountRepository) *QuotaService {
	return &QuotaService{
		accountRepo: accountRepo,
		limit:       config.FreePlanIdeaLimit,
	}
}

// TryConsume atomically consumes n units of quota. Premium accounts always
// pass without incrementing the counter. A denied consume has no side
// effects. The check and increment are a single guarded UPDATE, so two
// concurrent requests can never both take the last unit.
func (s *QuotaService) TryConsume(ctx context.Context, accountID string, n int) (*model.Account, error) {
	account, err := s.accountRepo.TryConsume(ctx, accountID, n, s.limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account != nil {
		return account, nil
	}

	// Zero rows matched: either the account is unknown or the cap is hit.
	existing, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing == nil {
		return nil, apperrors.NotFound("Account")
	}

	log.Info().
		Str("accountId", accountID).
		Int("consumed", existing.IdeasConsumed).
		Int("limit", s.limit).
		Msg("quota consume denied")

	audit.Log(ctx, audit.Event{
		Type:      audit.EventQuotaExhausted,
		AccountID: accountID,
		Details:   map[string]interface{}{"consumed": existing.IdeasConsumed, "limit": s.limit},
	})

	return nil, apperrors.QuotaExhausted()
}

// Refund reverses a consume after a downstream failure, so quota is never
// charged for work not delivered. Premium consumes never incremented the
// counter, so there is nothing to reverse for premium accounts.
func (s *QuotaService) Refund(ctx context.Context, account *model.Account, n int) {
	if account.Plan == model.PlanPremium {
		return
	}

	if _, err := s.accountRepo.RefundConsume(ctx, account.ID, n); err != nil {
		log.Error().Err(err).
			Str("accountId", account.ID).
			Int("units", n).
			Msg("quota refund failed")
		return
	}

	audit.Log(ctx, audit.Event{
		Type:      audit.EventQuotaRefund,
		AccountID: account.ID,
		Details:   map[string]interface{}{"units": n},
	})
}

// Limit returns the free-plan cap.
func (s *QuotaService) Limit() int {
	return s.limit
}
