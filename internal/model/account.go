package model

import (
	"time"
)

// Account is the ledger record for one registered identity. Plan and
// IdeasConsumed are mutated only through the account repository's own
// operations (TryConsume, RefundConsume, SetPlan), never read-modify-written
// by callers.
type Account struct {
	ID              string    `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`
	Name            string    `db:"name" json:"name"`
	ProfilePic      *string   `db:"profile_pic" json:"profilePic,omitempty"`
	InstagramHandle *string   `db:"instagram_handle" json:"instagramHandle,omitempty"`
	TikTokHandle    *string   `db:"tiktok_handle" json:"tiktokHandle,omitempty"`
	KwaiHandle      *string   `db:"kwai_handle" json:"kwaiHandle,omitempty"`
	Plan            PlanTier  `db:"plan" json:"plan"`
	IdeasConsumed   int       `db:"ideas_consumed_this_period" json:"ideasConsumedThisPeriod"`
	PeriodStart     time.Time `db:"period_start" json:"periodStart"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

type CreateAccountParams struct {
	Email           string
	Name            string
	ProfilePic      *string
	InstagramHandle *string
	TikTokHandle    *string
	KwaiHandle      *string
}
