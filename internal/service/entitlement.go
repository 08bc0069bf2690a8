package service

import (
	apperrors "github.com/shadoom/entitlement-server-go/internal/errors"
	"github.com/shadoom/entitlement-server-go/internal/model"
)

// EntitlementService derives the authorized capability set from current
// ledger state. It performs no mutation; the quota gate is composed by the
// caller after a structural allow.
type EntitlementService struct{}

func NewEntitlementService() *EntitlementService {
	return &EntitlementService{}
}

// Authorize checks whether the account's current state structurally permits
// the capability. generate_idea is always structurally allowed; the numeric
// cap is enforced separately by the quota gate. delete_idea needs the idea
// itself; use CanDeleteIdea.
func (s *EntitlementService) Authorize(account *model.Account, capability model.Capability) error {
	if account == nil {
		return apperrors.Unauthorized("account required")
	}

	switch capability {
	case model.CapabilityAnalyzeProfile:
		if account.Plan != model.PlanPremium {
			return apperrors.PlanRequired(string(capability))
		}
		return nil

	case model.CapabilityGenerateIdea:
		return nil

	case model.CapabilityDeleteIdea:
		return nil

	default:
		return apperrors.Forbidden("unknown capability")
	}
}

// CanDeleteIdea allows deletion only by the idea's owner.
func (s *EntitlementService) CanDeleteIdea(account *model.Account, idea *model.Idea) error {
	if account == nil {
		return apperrors.Unauthorized("account required")
	}
	if idea.AccountID != account.ID {
		return apperrors.NotOwner("Idea")
	}
	return nil
}
