package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/shadoom/entitlement-server-go/internal/errors"
	"github.com/shadoom/entitlement-server-go/internal/model"
	"github.com/shadoom/entitlement-server-go/internal/repository"
	"github.com/shadoom/entitlement-server-go/internal/util"
)

const adminSessionTTL = 24 * time.Hour

// AdminService backs the operator console: password login, dashboard
// stats and the plan override channel. Overrides go through the ledger,
// so admin changes leave the same audit trail as payments.
type AdminService struct {
	sessionRepo   repository.AdminSessionRepository
	accountRepo   repository.AccountRepository
	ideaRepo      repository.IdeaRepository
	paymentRepo   repository.PaymentRepository
	ledger        *AccountService
	passwordHash  string
	sessionSecret string
}

func NewAdminService(
	sessionRepo repository.AdminSessionRepository,
	accountRepo repository.AccountRepository,
	ideaRepo repository.IdeaRepository,
	paymentRepo repository.PaymentRepository,
	ledger *AccountService,
	passwordHash, sessionSecret string,
) *AdminService {
	return &AdminService{
		sessionRepo:   sessionRepo,
		accountRepo:   accountRepo,
		ideaRepo:      ideaRepo,
		paymentRepo:   paymentRepo,
		ledger:        ledger,
		passwordHash:  passwordHash,
		sessionSecret: sessionSecret,
	}
}

// Login verifies the operator password and mints an opaque session token.
// Only the HMAC of the token is stored. Returns "" on a wrong password.
func (s *AdminService) Login(ctx context.Context, password string) (string, error) {
	if s.passwordHash == "" || !util.CheckPasswordHash(password, s.passwordHash) {
		return "", nil
	}

	token, err := util.GenerateToken()
	if err != nil {
		return "", err
	}

	tokenHash := util.HmacSHA256(s.sessionSecret, token)
	_, err = s.sessionRepo.Create(ctx, model.CreateAdminSessionParams{
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(adminSessionTTL),
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

func (s *AdminService) Logout(ctx context.Context, token string) error {
	tokenHash := util.HmacSHA256(s.sessionSecret, token)
	return s.sessionRepo.DeleteByTokenHash(ctx, tokenHash)
}

func (s *AdminService) ValidateSession(ctx context.Context, token string) bool {
	tokenHash := util.HmacSHA256(s.sessionSecret, token)
	session, err := s.sessionRepo.FindByTokenHash(ctx, tokenHash)
	return err == nil && session != nil
}

type DashboardStats struct {
	Accounts struct {
		Total   int `json:"total"`
		Premium int `json:"premium"`
		Free    int `json:"free"`
	} `json:"accounts"`
	Ideas struct {
		Total int `json:"total"`
	} `json:"ideas"`
	Payments struct {
		Total     int `json:"total"`
		Completed int `json:"completed"`
		Pending   int `json:"pending"`
	} `json:"payments"`
	Revenue struct {
		TotalCents int64  `json:"totalCents"`
		MonthCents int64  `json:"monthCents"`
		Currency   string `json:"currency"`
	} `json:"revenue"`
}

func (s *AdminService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	stats.Revenue.Currency = "BRL"

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.accountRepo.Count(gctx)
		stats.Accounts.Total = n
		return err
	})
	g.Go(func() error {
		n, err := s.accountRepo.CountByPlan(gctx, model.PlanPremium)
		stats.Accounts.Premium = n
		return err
	})
	g.Go(func() error {
		n, err := s.ideaRepo.Count(gctx)
		stats.Ideas.Total = n
		return err
	})
	g.Go(func() error {
		n, err := s.paymentRepo.Count(gctx)
		stats.Payments.Total = n
		return err
	})
	g.Go(func() error {
		n, err := s.paymentRepo.CountByStatus(gctx, model.PaymentStatusCompleted)
		stats.Payments.Completed = n
		return err
	})
	g.Go(func() error {
		n, err := s.paymentRepo.CountByStatus(gctx, model.PaymentStatusPending)
		stats.Payments.Pending = n
		return err
	})
	g.Go(func() error {
		cents, err := s.paymentRepo.SumCompletedCents(gctx)
		stats.Revenue.TotalCents = cents
		return err
	})
	g.Go(func() error {
		cents, err := s.paymentRepo.SumCompletedCentsSince(gctx, time.Now().AddDate(0, -1, 0))
		stats.Revenue.MonthCents = cents
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, apperrors.Database(err)
	}

	stats.Accounts.Free = stats.Accounts.Total - stats.Accounts.Premium
	return stats, nil
}

func (s *AdminService) ListAccounts(ctx context.Context, limit, offset int) ([]model.Account, error) {
	accounts, err := s.accountRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return accounts, nil
}

func (s *AdminService) ListPayments(ctx context.Context, limit, offset int) ([]model.PaymentAttempt, error) {
	attempts, err := s.paymentRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return attempts, nil
}

// PromoteAccount grants premium without a payment attempt. Idempotent on
// an already-premium account.
func (s *AdminService) PromoteAccount(ctx context.Context, accountID string) (*model.Account, error) {
	account, err := s.ledger.SetPlan(ctx, accountID, model.PlanPremium, "admin", "admin:promote")
	if err != nil {
		return nil, err
	}
	log.Info().Str("accountId", accountID).Msg("account promoted to premium")
	return account, nil
}

// DemoteAccount revokes premium. The usage counter is left as is; a
// demoted account keeps whatever it consumed this period.
func (s *AdminService) DemoteAccount(ctx context.Context, accountID string) (*model.Account, error) {
	account, err := s.ledger.SetPlan(ctx, accountID, model.PlanFree, "admin", "admin:demote")
	if err != nil {
		return nil, err
	}
	log.Info().Str("accountId", accountID).Msg("account demoted to free")
	return account, nil
}
