package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/shadoom/entitlement-server-go/internal/model"
	"github.com/shadoom/entitlement-server-go/internal/repository"
)

type stubSessionRepo struct {
	deleteExpiredCalls atomic.Int64
}

func (s *stubSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.AdminSession, error) {
	return nil, nil
}

func (s *stubSessionRepo) Create(ctx context.Context, params model.CreateAdminSessionParams) (*model.AdminSession, error) {
	return nil, nil
}

func (s *stubSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	return nil
}

func (s *stubSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	s.deleteExpiredCalls.Add(1)
	return 2, nil
}

type stubPaymentRepo struct {
	failStaleCalls atomic.Int64
}

func (s *stubPaymentRepo) FindByID(ctx context.Context, id string) (*model.PaymentAttempt, error) {
	return nil, nil
}

func (s *stubPaymentRepo) FindAll(ctx context.Context, limit, offset int) ([]model.PaymentAttempt, error) {
	return nil, nil
}

func (s *stubPaymentRepo) FindByAccountID(ctx context.Context, accountID string) ([]model.PaymentAttempt, error) {
	return nil, nil
}

func (s *stubPaymentRepo) Create(ctx context.Context, params model.CreatePaymentAttemptParams) (*model.PaymentAttempt, error) {
	return nil, nil
}

func (s *stubPaymentRepo) Resolve(ctx context.Context, id string, status model.PaymentStatus) (*model.PaymentAttempt, error) {
	return nil, nil
}

func (s *stubPaymentRepo) FailStalePending(ctx context.Context, method model.PaymentMethod, cutoff time.Time) (int64, error) {
	s.failStaleCalls.Add(1)
	return 1, nil
}

func (s *stubPaymentRepo) Count(ctx context.Context) (int, error) {
	return 0, nil
}

func (s *stubPaymentRepo) CountByStatus(ctx context.Context, status model.PaymentStatus) (int, error) {
	return 0, nil
}

func (s *stubPaymentRepo) SumCompletedCents(ctx context.Context) (int64, error) {
	return 0, nil
}

func (s *stubPaymentRepo) SumCompletedCentsSince(ctx context.Context, since time.Time) (int64, error) {
	return 0, nil
}

func (s *stubPaymentRepo) WithTx(tx *sqlx.Tx) repository.PaymentRepository {
	return s
}

type stubAccountRepo struct {
	resetPeriodCalls atomic.Int64
}

func (s *stubAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	return nil, nil
}

func (s *stubAccountRepo) FindByIDForUpdate(ctx context.Context, id string) (*model.Account, error) {
	return nil, nil
}

func (s *stubAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	return nil, nil
}

func (s *stubAccountRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Account, error) {
	return nil, nil
}

func (s *stubAccountRepo) CreateOrFetch(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	return nil, nil
}

func (s *stubAccountRepo) UpdatePlan(ctx context.Context, id string, plan model.PlanTier) (*model.Account, error) {
	return nil, nil
}

func (s *stubAccountRepo) TryConsume(ctx context.Context, id string, n, limit int) (*model.Account, error) {
	return nil, nil
}

func (s *stubAccountRepo) RefundConsume(ctx context.Context, id string, n int) (*model.Account, error) {
	return nil, nil
}

func (s *stubAccountRepo) ResetExpiredPeriods(ctx context.Context, cutoff time.Time) (int64, error) {
	s.resetPeriodCalls.Add(1)
	return 3, nil
}

func (s *stubAccountRepo) Count(ctx context.Context) (int, error) {
	return 0, nil
}

func (s *stubAccountRepo) CountByPlan(ctx context.Context, plan model.PlanTier) (int, error) {
	return 0, nil
}

func (s *stubAccountRepo) WithTx(tx *sqlx.Tx) repository.AccountRepository {
	return s
}

func TestCleanupJob(t *testing.T) {
	t.Run("creates job with correct interval", func(t *testing.T) {
		job := NewCleanupJob(nil, nil, nil, 5*time.Minute, 30*time.Minute, 0)

		assert.NotNil(t, job)
		assert.Equal(t, 5*time.Minute, job.interval)
	})

	t.Run("sweeps sessions and stale card attempts on start", func(t *testing.T) {
		sessionRepo := &stubSessionRepo{}
		paymentRepo := &stubPaymentRepo{}
		accountRepo := &stubAccountRepo{}

		job := NewCleanupJob(sessionRepo, paymentRepo, accountRepo, time.Hour, 30*time.Minute, 0)

		job.Start()
		time.Sleep(50 * time.Millisecond)
		job.Stop()

		assert.Equal(t, int64(1), sessionRepo.deleteExpiredCalls.Load())
		assert.Equal(t, int64(1), paymentRepo.failStaleCalls.Load())
		assert.Equal(t, int64(0), accountRepo.resetPeriodCalls.Load(), "period reset disabled at zero age")
	})

	t.Run("resets usage periods when an age is configured", func(t *testing.T) {
		sessionRepo := &stubSessionRepo{}
		paymentRepo := &stubPaymentRepo{}
		accountRepo := &stubAccountRepo{}

		job := NewCleanupJob(sessionRepo, paymentRepo, accountRepo, time.Hour, 30*time.Minute, 30*24*time.Hour)

		job.Start()
		time.Sleep(50 * time.Millisecond)
		job.Stop()

		assert.Equal(t, int64(1), accountRepo.resetPeriodCalls.Load())
	})
}
