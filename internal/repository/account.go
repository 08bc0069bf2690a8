package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/shadoom/entitlement-server-go/internal/model"
)

type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
	// FindByIDForUpdate locks the account row for the duration of the
	// surrounding transaction. Only meaningful on a repository bound to a
	// transaction via WithTx.
	FindByIDForUpdate(ctx context.Context, id string) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.Account, error)
	// CreateOrFetch inserts a new account or, when the email is already
	// registered, returns the existing record unchanged.
	CreateOrFetch(ctx context.Context, params model.CreateAccountParams) (*model.Account, error)
	// UpdatePlan writes the plan tier unconditionally. Callers go through
	// the ledger service, which holds the row lock and writes the audit
	// entry in the same transaction.
	UpdatePlan(ctx context.Context, id string, plan model.PlanTier) (*model.Account, error)
	// TryConsume atomically increments the usage counter by n if the
	// account is under its free-plan limit, or passes a premium account
	// through without incrementing. Returns nil without error when the
	// guard does not match (quota exhausted or unknown account).
	TryConsume(ctx context.Context, id string, n, limit int) (*model.Account, error)
	// RefundConsume reverses a consume after a downstream failure,
	// flooring the counter at zero.
	RefundConsume(ctx context.Context, id string, n int) (*model.Account, error)
	// ResetExpiredPeriods zeroes counters and restarts the period for
	// accounts whose period began before the cutoff.
	ResetExpiredPeriods(ctx context.Context, cutoff time.Time) (int64, error)
	Count(ctx context.Context) (int, error)
	CountByPlan(ctx context.Context, plan model.PlanTier) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) AccountRepository
}

type accountRepo struct {
	db sqlxDB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) WithTx(tx *sqlx.Tx) AccountRepository {
	return &accountRepo{db: tx}
}

func (r *accountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM accounts WHERE id = $1
	`, id)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) FindByIDForUpdate(ctx context.Context, id string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM accounts WHERE id = $1 FOR UPDATE
	`, id)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM accounts WHERE email = $1
	`, email)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.SelectContext(ctx, &accounts, `
		SELECT * FROM accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepo) CreateOrFetch(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	// The no-op DO UPDATE makes the statement return the existing row on
	// conflict in a single round trip.
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		INSERT INTO accounts (email, name, profile_pic, instagram_handle, tiktok_handle, kwai_handle)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING *
	`, params.Email, params.Name, params.ProfilePic,
		params.InstagramHandle, params.TikTokHandle, params.KwaiHandle)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) UpdatePlan(ctx context.Context, id string, plan model.PlanTier) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		UPDATE accounts SET
			plan = $2,
			updated_at = $3
		WHERE id = $1
		RETURNING *
	`, id, plan, time.Now())
	return HandleNotFound(&account, err)
}

func (r *accountRepo) TryConsume(ctx context.Context, id string, n, limit int) (*model.Account, error) {
	// Single conditional compare-and-increment; Postgres row locking makes
	// this linearizable per account. Premium passes the guard without
	// touching the counter.
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		UPDATE accounts SET
			ideas_consumed_this_period = CASE
				WHEN plan = 'premium' THEN ideas_consumed_this_period
				ELSE ideas_consumed_this_period + $2
			END,
			updated_at = $4
		WHERE id = $1
		  AND (plan = 'premium' OR ideas_consumed_this_period + $2 <= $3)
		RETURNING *
	`, id, n, limit, time.Now())
	return HandleNotFound(&account, err)
}

func (r *accountRepo) RefundConsume(ctx context.Context, id string, n int) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		UPDATE accounts SET
			ideas_consumed_this_period = GREATEST(ideas_consumed_this_period - $2, 0),
			updated_at = $3
		WHERE id = $1
		RETURNING *
	`, id, n, time.Now())
	return HandleNotFound(&account, err)
}

func (r *accountRepo) ResetExpiredPeriods(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET
			ideas_consumed_this_period = 0,
			period_start = $2,
			updated_at = $2
		WHERE period_start < $1
	`, cutoff, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *accountRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM accounts`)
	return count, err
}

func (r *accountRepo) CountByPlan(ctx context.Context, plan model.PlanTier) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM accounts WHERE plan = $1`, plan)
	return count, err
}
