package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/shadoom/entitlement-server-go/internal/audit"
	"github.com/shadoom/entitlement-server-go/internal/database"
	apperrors "github.com/shadoom/entitlement-server-go/internal/errors"
	"github.com/shadoom/entitlement-server-go/internal/model"
	"github.com/shadoom/entitlement-server-go/internal/repository"
	"github.com/shadoom/entitlement-server-go/internal/util"
)

// AccountService is the account ledger. It owns every mutation of plan tier
// and is the only path through which SetPlan runs.
type AccountService struct {
	db          database.TxRunner
	accountRepo repository.AccountRepository
	auditRepo   repository.PlanAuditRepository
}

func NewAccountService(
	db database.TxRunner,
	accountRepo repository.AccountRepository,
	auditRepo repository.PlanAuditRepository,
) *AccountService {
	return &AccountService{
		db:          db,
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
	}
}

// CreateOrFetch registers an account for a verified identity, or returns the
// existing record when the contact address is already registered. The
// upstream identity provider may be consulted more than once for the same
// real user, so this is idempotent by design.
func (s *AccountService) CreateOrFetch(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	if !util.IsValidEmail(params.Email) {
		return nil, apperrors.InvalidInput("email", "must be a valid address")
	}
	if params.Name == "" {
		return nil, apperrors.MissingRequired("name")
	}

	account, err := s.accountRepo.CreateOrFetch(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("accountId", account.ID).
		Str("plan", string(account.Plan)).
		Msg("account created or fetched")

	audit.Log(ctx, audit.Event{
		Type:      audit.EventAccountCreate,
		AccountID: account.ID,
	})

	return account, nil
}

func (s *AccountService) GetByID(ctx context.Context, id string) (*model.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account == nil {
		return nil, apperrors.NotFound("Account")
	}
	return account, nil
}

func (s *AccountService) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	account, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account == nil {
		return nil, apperrors.NotFound("Account")
	}
	return account, nil
}

// SetPlan transitions an account to the given tier and appends the audit
// entry in the same transaction. Setting the already-current tier is a
// no-op that still succeeds; it appends no audit entry, so the trail
// records transitions only.
func (s *AccountService) SetPlan(ctx context.Context, id string, tier model.PlanTier, actor, reason string) (*model.Account, error) {
	var account *model.Account
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var txErr error
		account, txErr = s.SetPlanInTx(ctx, tx, id, tier, actor, reason)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// SetPlanInTx is SetPlan running inside a caller-owned transaction. The
// payment state machine uses it to make the terminal resolution and the
// plan transition atomic.
func (s *AccountService) SetPlanInTx(ctx context.Context, tx *sqlx.Tx, id string, tier model.PlanTier, actor, reason string) (*model.Account, error) {
	if !tier.Valid() {
		return nil, apperrors.InvalidInput("plan", fmt.Sprintf("unknown tier %q", tier))
	}

	accountRepo := s.accountRepo.WithTx(tx)
	auditRepo := s.auditRepo.WithTx(tx)

	current, err := accountRepo.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if current == nil {
		return nil, apperrors.NotFound("Account")
	}

	if current.Plan == tier {
		log.Debug().
			Str("accountId", id).
			Str("plan", string(tier)).
			Str("reason", reason).
			Msg("setPlan no-op: already at tier")
		return current, nil
	}

	updated, err := accountRepo.UpdatePlan(ctx, id, tier)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if updated == nil {
		return nil, apperrors.NotFound("Account")
	}

	if _, err := auditRepo.Create(ctx, model.CreatePlanAuditParams{
		AccountID:    id,
		Actor:        actor,
		PreviousPlan: current.Plan,
		NewPlan:      tier,
		Reason:       reason,
	}); err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("accountId", id).
		Str("previousPlan", string(current.Plan)).
		Str("newPlan", string(tier)).
		Str("reason", reason).
		Msg("plan transition")

	audit.Log(ctx, audit.Event{
		Type:      audit.EventPlanChange,
		AccountID: id,
		Details: map[string]interface{}{
			"actor":         actor,
			"previous_plan": string(current.Plan),
			"new_plan":      string(tier),
			"reason":        reason,
		},
	})

	return updated, nil
}

// PlanHistory returns the immutable audit trail for an account.
func (s *AccountService) PlanHistory(ctx context.Context, accountID string) ([]model.PlanAudit, error) {
	entries, err := s.auditRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return entries, nil
}
