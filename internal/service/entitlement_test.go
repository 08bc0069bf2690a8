package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/shadoom/entitlement-server-go/internal/errors"
	"github.com/shadoom/entitlement-server-go/internal/model"
)

func TestEntitlementServiceAuthorize(t *testing.T) {
	svc := NewEntitlementService()
	free := &model.Account{ID: "acc-1", Plan: model.PlanFree}
	premium := &model.Account{ID: "acc-2", Plan: model.PlanPremium}

	t.Run("free account may generate ideas", func(t *testing.T) {
		assert.NoError(t, svc.Authorize(free, model.CapabilityGenerateIdea))
	})

	t.Run("free account may not analyze profiles", func(t *testing.T) {
		err := svc.Authorize(free, model.CapabilityAnalyzeProfile)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodePlanRequired))
	})

	t.Run("premium account may analyze profiles", func(t *testing.T) {
		assert.NoError(t, svc.Authorize(premium, model.CapabilityAnalyzeProfile))
	})

	t.Run("exhausted free account still passes the structural check", func(t *testing.T) {
		exhausted := &model.Account{ID: "acc-3", Plan: model.PlanFree, IdeasConsumed: 10}
		assert.NoError(t, svc.Authorize(exhausted, model.CapabilityGenerateIdea))
	})

	t.Run("nil account is unauthorized", func(t *testing.T) {
		err := svc.Authorize(nil, model.CapabilityGenerateIdea)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))
	})

	t.Run("unknown capability is forbidden", func(t *testing.T) {
		err := svc.Authorize(premium, model.Capability("launch_rocket"))
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeForbidden))
	})
}

func TestEntitlementServiceCanDeleteIdea(t *testing.T) {
	svc := NewEntitlementService()
	owner := &model.Account{ID: "acc-1", Plan: model.PlanFree}
	other := &model.Account{ID: "acc-2", Plan: model.PlanPremium}
	idea := &model.Idea{ID: "idea-1", AccountID: "acc-1"}

	t.Run("owner may delete", func(t *testing.T) {
		assert.NoError(t, svc.CanDeleteIdea(owner, idea))
	})

	t.Run("another account may not delete, premium or not", func(t *testing.T) {
		err := svc.CanDeleteIdea(other, idea)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotOwner))
	})
}
