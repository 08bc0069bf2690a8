package model

import (
	"time"
)

// PlanAudit is one immutable record of a plan transition, written in the
// same transaction as the transition itself. Rows are insert-only.
type PlanAudit struct {
	ID           string    `db:"id" json:"id"`
	AccountID    string    `db:"account_id" json:"accountId"`
	Actor        string    `db:"actor" json:"actor"`
	PreviousPlan PlanTier  `db:"previous_plan" json:"previousPlan"`
	NewPlan      PlanTier  `db:"new_plan" json:"newPlan"`
	Reason       string    `db:"reason" json:"reason"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type CreatePlanAuditParams struct {
	AccountID    string
	Actor        string
	PreviousPlan PlanTier
	NewPlan      PlanTier
	Reason       string
}
