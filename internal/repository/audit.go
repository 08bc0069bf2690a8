package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/shadoom/entitlement-server-go/internal/model"
)

// PlanAuditRepository is insert-only; the audit trail has no update or
// delete path.
type PlanAuditRepository interface {
	Create(ctx context.Context, params model.CreatePlanAuditParams) (*model.PlanAudit, error)
	FindByAccountID(ctx context.Context, accountID string) ([]model.PlanAudit, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) PlanAuditRepository
}

type planAuditRepo struct {
	db sqlxDB
}

func NewPlanAuditRepository(db *sqlx.DB) PlanAuditRepository {
	return &planAuditRepo{db: db}
}

func (r *planAuditRepo) WithTx(tx *sqlx.Tx) PlanAuditRepository {
	return &planAuditRepo{db: tx}
}

func (r *planAuditRepo) Create(ctx context.Context, params model.CreatePlanAuditParams) (*model.PlanAudit, error) {
	var entry model.PlanAudit
	err := r.db.GetContext(ctx, &entry, `
		INSERT INTO plan_audit (account_id, actor, previous_plan, new_plan, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.AccountID, params.Actor, params.PreviousPlan, params.NewPlan, params.Reason)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *planAuditRepo) FindByAccountID(ctx context.Context, accountID string) ([]model.PlanAudit, error) {
	var entries []model.PlanAudit
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM plan_audit
		WHERE account_id = $1
		ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	return entries, nil
}
