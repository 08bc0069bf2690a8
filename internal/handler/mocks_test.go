package handler

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/shadoom/entitlement-server-go/internal/model"
	"github.com/shadoom/entitlement-server-go/internal/repository"
)

// Mock account repository
type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) FindByIDForUpdate(ctx context.Context, id string) (*model.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Account), args.Error(1)
}

func (m *mockAccountRepo) CreateOrFetch(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) UpdatePlan(ctx context.Context, id string, plan model.PlanTier) (*model.Account, error) {
	args := m.Called(ctx, id, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) TryConsume(ctx context.Context, id string, n, limit int) (*model.Account, error) {
	args := m.Called(ctx, id, n, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) RefundConsume(ctx context.Context, id string, n int) (*model.Account, error) {
	args := m.Called(ctx, id, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) ResetExpiredPeriods(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAccountRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockAccountRepo) CountByPlan(ctx context.Context, plan model.PlanTier) (int, error) {
	args := m.Called(ctx, plan)
	return args.Int(0), args.Error(1)
}

func (m *mockAccountRepo) WithTx(tx *sqlx.Tx) repository.AccountRepository {
	return m
}

// Mock idea repository
type mockIdeaRepo struct {
	mock.Mock
}

func (m *mockIdeaRepo) FindByID(ctx context.Context, id string) (*model.Idea, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Idea), args.Error(1)
}

func (m *mockIdeaRepo) FindByAccountID(ctx context.Context, accountID string, limit int) ([]model.Idea, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Idea), args.Error(1)
}

func (m *mockIdeaRepo) Create(ctx context.Context, params model.CreateIdeaParams) (*model.Idea, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Idea), args.Error(1)
}

func (m *mockIdeaRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockIdeaRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// Mock payment repository
type mockPaymentRepo struct {
	mock.Mock
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*model.PaymentAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentAttempt), args.Error(1)
}

func (m *mockPaymentRepo) FindAll(ctx context.Context, limit, offset int) ([]model.PaymentAttempt, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PaymentAttempt), args.Error(1)
}

func (m *mockPaymentRepo) FindByAccountID(ctx context.Context, accountID string) ([]model.PaymentAttempt, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PaymentAttempt), args.Error(1)
}

func (m *mockPaymentRepo) Create(ctx context.Context, params model.CreatePaymentAttemptParams) (*model.PaymentAttempt, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentAttempt), args.Error(1)
}

func (m *mockPaymentRepo) Resolve(ctx context.Context, id string, status model.PaymentStatus) (*model.PaymentAttempt, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentAttempt), args.Error(1)
}

func (m *mockPaymentRepo) FailStalePending(ctx context.Context, method model.PaymentMethod, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, method, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPaymentRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockPaymentRepo) CountByStatus(ctx context.Context, status model.PaymentStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *mockPaymentRepo) SumCompletedCents(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPaymentRepo) SumCompletedCentsSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPaymentRepo) WithTx(tx *sqlx.Tx) repository.PaymentRepository {
	return m
}

// Mock plan audit repository
type mockPlanAuditRepo struct {
	mock.Mock
}

func (m *mockPlanAuditRepo) Create(ctx context.Context, params model.CreatePlanAuditParams) (*model.PlanAudit, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlanAudit), args.Error(1)
}

func (m *mockPlanAuditRepo) FindByAccountID(ctx context.Context, accountID string) ([]model.PlanAudit, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PlanAudit), args.Error(1)
}

func (m *mockPlanAuditRepo) WithTx(tx *sqlx.Tx) repository.PlanAuditRepository {
	return m
}

// Mock generative engine
type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, topic string, count int) ([]model.IdeaDraft, error) {
	args := m.Called(ctx, topic, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.IdeaDraft), args.Error(1)
}
