package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shadoom/entitlement-server-go/internal/model"
	"github.com/shadoom/entitlement-server-go/internal/repository"
)

// CleanupJob periodically sweeps expired admin sessions and card attempts
// abandoned mid-confirmation. When periodAge is non-zero it also restarts
// usage periods older than that age; crypto attempts are never touched so
// a slow on-chain confirmation can still settle.
type CleanupJob struct {
	sessionRepo  repository.AdminSessionRepository
	paymentRepo  repository.PaymentRepository
	accountRepo  repository.AccountRepository
	interval     time.Duration
	staleCardAge time.Duration
	periodAge    time.Duration
	done         chan struct{}
}

func NewCleanupJob(
	sessionRepo repository.AdminSessionRepository,
	paymentRepo repository.PaymentRepository,
	accountRepo repository.AccountRepository,
	interval time.Duration,
	staleCardAge time.Duration,
	periodAge time.Duration,
) *CleanupJob {
	return &CleanupJob{
		sessionRepo:  sessionRepo,
		paymentRepo:  paymentRepo,
		accountRepo:  accountRepo,
		interval:     interval,
		staleCardAge: staleCardAge,
		periodAge:    periodAge,
		done:         make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()

	j.runCleanup(ctx, "admin sessions", j.sessionRepo.DeleteExpired)
	j.runCleanup(ctx, "stale card attempts", func(ctx context.Context) (int64, error) {
		return j.paymentRepo.FailStalePending(ctx, model.PaymentMethodCard, now.Add(-j.staleCardAge))
	})
	if j.periodAge > 0 {
		j.runCleanup(ctx, "expired usage periods", func(ctx context.Context) (int64, error) {
			return j.accountRepo.ResetExpiredPeriods(ctx, now.Add(-j.periodAge))
		})
	}
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
