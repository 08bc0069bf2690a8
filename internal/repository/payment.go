package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/shadoom/entitlement-server-go/internal/model"
)

type PaymentRepository interface {
	FindByID(ctx context.Context, id string) (*model.PaymentAttempt, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.PaymentAttempt, error)
	FindByAccountID(ctx context.Context, accountID string) ([]model.PaymentAttempt, error)
	Create(ctx context.Context, params model.CreatePaymentAttemptParams) (*model.PaymentAttempt, error)
	// Resolve performs the single pending -> terminal transition. It
	// returns nil without error when the attempt is missing or already
	// terminal; callers distinguish the two with FindByID.
	Resolve(ctx context.Context, id string, status model.PaymentStatus) (*model.PaymentAttempt, error)
	// FailStalePending sweeps card attempts abandoned mid-confirmation.
	// Crypto attempts may stay pending indefinitely and are never swept.
	FailStalePending(ctx context.Context, method model.PaymentMethod, cutoff time.Time) (int64, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status model.PaymentStatus) (int, error)
	SumCompletedCents(ctx context.Context) (int64, error)
	SumCompletedCentsSince(ctx context.Context, since time.Time) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) PaymentRepository
}

type paymentRepo struct {
	db sqlxDB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) WithTx(tx *sqlx.Tx) PaymentRepository {
	return &paymentRepo{db: tx}
}

func (r *paymentRepo) FindByID(ctx context.Context, id string) (*model.PaymentAttempt, error) {
	var attempt model.PaymentAttempt
	err := r.db.GetContext(ctx, &attempt, `
		SELECT * FROM payment_attempts WHERE id = $1
	`, id)
	return HandleNotFound(&attempt, err)
}

func (r *paymentRepo) FindAll(ctx context.Context, limit, offset int) ([]model.PaymentAttempt, error) {
	var attempts []model.PaymentAttempt
	err := r.db.SelectContext(ctx, &attempts, `
		SELECT * FROM payment_attempts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *paymentRepo) FindByAccountID(ctx context.Context, accountID string) ([]model.PaymentAttempt, error) {
	var attempts []model.PaymentAttempt
	err := r.db.SelectContext(ctx, &attempts, `
		SELECT * FROM payment_attempts
		WHERE account_id = $1
		ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *paymentRepo) Create(ctx context.Context, params model.CreatePaymentAttemptParams) (*model.PaymentAttempt, error) {
	var attempt model.PaymentAttempt
	err := r.db.GetContext(ctx, &attempt, `
		INSERT INTO payment_attempts
			(account_id, plan, amount_cents, currency, method, payload, crypto_currency, receiving_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`, params.AccountID, params.Plan, params.AmountCents, params.Currency,
		params.Method, params.Payload, params.CryptoCurrency, params.ReceivingAddress)
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *paymentRepo) Resolve(ctx context.Context, id string, status model.PaymentStatus) (*model.PaymentAttempt, error) {
	// The status guard makes the transition atomic: concurrent or
	// redelivered resolutions match zero rows.
	var attempt model.PaymentAttempt
	err := r.db.GetContext(ctx, &attempt, `
		UPDATE payment_attempts SET
			status = $2,
			resolved_at = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING *
	`, id, status, time.Now())
	return HandleNotFound(&attempt, err)
}

func (r *paymentRepo) FailStalePending(ctx context.Context, method model.PaymentMethod, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payment_attempts SET
			status = 'failed',
			resolved_at = $3
		WHERE method = $1 AND status = 'pending' AND created_at < $2
	`, method, cutoff, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *paymentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM payment_attempts`)
	return count, err
}

func (r *paymentRepo) CountByStatus(ctx context.Context, status model.PaymentStatus) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM payment_attempts WHERE status = $1
	`, status)
	return count, err
}

func (r *paymentRepo) SumCompletedCents(ctx context.Context) (int64, error) {
	var sum int64
	err := r.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM payment_attempts
		WHERE status = 'completed'
	`)
	return sum, err
}

func (r *paymentRepo) SumCompletedCentsSince(ctx context.Context, since time.Time) (int64, error) {
	var sum int64
	err := r.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM payment_attempts
		WHERE status = 'completed' AND resolved_at >= $1
	`, since)
	return sum, err
}
