package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shadoom/entitlement-server-go/internal/config"
	apperrors "github.com/shadoom/entitlement-server-go/internal/errors"
	"github.com/shadoom/entitlement-server-go/internal/model"
	"github.com/shadoom/entitlement-server-go/internal/repository"
)

func TestQuotaServiceTryConsume(t *testing.T) {
	ctx := context.Background()

	t.Run("free account under cap consumes a unit", func(t *testing.T) {
		accountRepo := new(mockAccountRepo)
		svc := NewQuotaService(accountRepo)

		after := &model.Account{ID: "acc-1", Plan: model.PlanFree, IdeasConsumed: 4}
		accountRepo.On("TryConsume", ctx, "acc-1", 1, config.FreePlanIdeaLimit).Return(after, nil)

		account, err := svc.TryConsume(ctx, "acc-1", 1)

		require.NoError(t, err)
		assert.Equal(t, 4, account.IdeasConsumed)
	})

	t.Run("free account at cap is denied with quota exhausted", func(t *testing.T) {
		accountRepo := new(mockAccountRepo)
		svc := NewQuotaService(accountRepo)

		exhausted := &model.Account{ID: "acc-1", Plan: model.PlanFree, IdeasConsumed: config.FreePlanIdeaLimit}
		accountRepo.On("TryConsume", ctx, "acc-1", 1, config.FreePlanIdeaLimit).Return(nil, nil)
		accountRepo.On("FindByID", ctx, "acc-1").Return(exhausted, nil)

		_, err := svc.TryConsume(ctx, "acc-1", 1)

		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeQuotaExhausted))
	})

	t.Run("unknown account is denied with not found", func(t *testing.T) {
		accountRepo := new(mockAccountRepo)
		svc := NewQuotaService(accountRepo)

		accountRepo.On("TryConsume", ctx, "ghost", 1, config.FreePlanIdeaLimit).Return(nil, nil)
		accountRepo.On("FindByID", ctx, "ghost").Return(nil, nil)

		_, err := svc.TryConsume(ctx, "ghost", 1)

		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
	})

	t.Run("premium account passes without consuming", func(t *testing.T) {
		accountRepo := new(mockAccountRepo)
		svc := NewQuotaService(accountRepo)

		premium := &model.Account{ID: "acc-1", Plan: model.PlanPremium, IdeasConsumed: 3}
		accountRepo.On("TryConsume", ctx, "acc-1", 1, config.FreePlanIdeaLimit).Return(premium, nil)

		account, err := svc.TryConsume(ctx, "acc-1", 1)

		require.NoError(t, err)
		assert.Equal(t, 3, account.IdeasConsumed)
	})
}

func TestQuotaServiceRefund(t *testing.T) {
	ctx := context.Background()

	t.Run("refunds a free account", func(t *testing.T) {
		accountRepo := new(mockAccountRepo)
		svc := NewQuotaService(accountRepo)

		free := &model.Account{ID: "acc-1", Plan: model.PlanFree, IdeasConsumed: 5}
		accountRepo.On("RefundConsume", ctx, "acc-1", 1).
			Return(&model.Account{ID: "acc-1", Plan: model.PlanFree, IdeasConsumed: 4}, nil)

		svc.Refund(ctx, free, 1)

		accountRepo.AssertExpectations(t)
	})

	t.Run("skips premium accounts that never incremented", func(t *testing.T) {
		accountRepo := new(mockAccountRepo)
		svc := NewQuotaService(accountRepo)

		premium := &model.Account{ID: "acc-1", Plan: model.PlanPremium}

		svc.Refund(ctx, premium, 1)

		accountRepo.AssertNotCalled(t, "RefundConsume", mock.Anything, mock.Anything, mock.Anything)
	})
}

// raceAccountRepo mirrors the guarded-update semantics of the SQL consume:
// the check and the increment happen under one lock, exactly as a single
// UPDATE statement is linearized per row by the database.
type raceAccountRepo struct {
	mu      sync.Mutex
	account model.Account
}

func (r *raceAccountRepo) TryConsume(ctx context.Context, id string, n, limit int) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.account.ID != id {
		return nil, nil
	}
	if r.account.Plan == model.PlanPremium {
		copied := r.account
		return &copied, nil
	}
	if r.account.IdeasConsumed+n > limit {
		return nil, nil
	}
	r.account.IdeasConsumed += n
	copied := r.account
	return &copied, nil
}

func (r *raceAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.account.ID != id {
		return nil, nil
	}
	copied := r.account
	return &copied, nil
}

func (r *raceAccountRepo) FindByIDForUpdate(ctx context.Context, id string) (*model.Account, error) {
	return r.FindByID(ctx, id)
}

func (r *raceAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	return nil, nil
}

func (r *raceAccountRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Account, error) {
	return nil, nil
}

func (r *raceAccountRepo) CreateOrFetch(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	return nil, nil
}

func (r *raceAccountRepo) UpdatePlan(ctx context.Context, id string, plan model.PlanTier) (*model.Account, error) {
	return nil, nil
}

func (r *raceAccountRepo) RefundConsume(ctx context.Context, id string, n int) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.account.IdeasConsumed -= n
	if r.account.IdeasConsumed < 0 {
		r.account.IdeasConsumed = 0
	}
	copied := r.account
	return &copied, nil
}

func (r *raceAccountRepo) ResetExpiredPeriods(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (r *raceAccountRepo) Count(ctx context.Context) (int, error) { return 1, nil }

func (r *raceAccountRepo) CountByPlan(ctx context.Context, plan model.PlanTier) (int, error) {
	return 0, nil
}

func (r *raceAccountRepo) WithTx(tx *sqlx.Tx) repository.AccountRepository { return r }

func TestQuotaServiceConcurrentLastUnit(t *testing.T) {
	t.Run("two requests racing for the last unit, exactly one wins", func(t *testing.T) {
		repo := &raceAccountRepo{account: model.Account{
			ID:            "acc-1",
			Plan:          model.PlanFree,
			IdeasConsumed: config.FreePlanIdeaLimit - 1,
		}}
		svc := NewQuotaService(repo)

		var wg sync.WaitGroup
		results := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, results[i] = svc.TryConsume(context.Background(), "acc-1", 1)
			}(i)
		}
		wg.Wait()

		var wins, denials int
		for _, err := range results {
			if err == nil {
				wins++
			} else if apperrors.IsCode(err, apperrors.ErrCodeQuotaExhausted) {
				denials++
			}
		}
		assert.Equal(t, 1, wins, "exactly one request should take the last unit")
		assert.Equal(t, 1, denials, "the loser should see quota exhausted")

		final, _ := repo.FindByID(context.Background(), "acc-1")
		assert.Equal(t, config.FreePlanIdeaLimit, final.IdeasConsumed)
	})
}
