package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/shadoom/entitlement-server-go/internal/audit"
	"github.com/shadoom/entitlement-server-go/internal/config"
	"github.com/shadoom/entitlement-server-go/internal/database"
	apperrors "github.com/shadoom/entitlement-server-go/internal/errors"
	"github.com/shadoom/entitlement-server-go/internal/model"
	"github.com/shadoom/entitlement-server-go/internal/processor"
	"github.com/shadoom/entitlement-server-go/internal/repository"
	"github.com/shadoom/entitlement-server-go/internal/sse"
	"github.com/shadoom/entitlement-server-go/internal/util"
)

// PaymentService is the payment state machine. An attempt is created
// pending and transitions exactly once to completed or failed; the
// transition and the plan credit run in one transaction so the ledger can
// never observe a completed attempt without its plan change.
type PaymentService struct {
	db          database.TxRunner
	paymentRepo repository.PaymentRepository
	ledger      *AccountService
	cards       processor.CardProcessor
	crypto      processor.CryptoNetwork
	events      EventPublisher
	cardTimeout time.Duration
}

func NewPaymentService(
	db database.TxRunner,
	paymentRepo repository.PaymentRepository,
	ledger *AccountService,
	cards processor.CardProcessor,
	crypto processor.CryptoNetwork,
	events EventPublisher,
	cardTimeout time.Duration,
) *PaymentService {
	return &PaymentService{
		db:          db,
		paymentRepo: paymentRepo,
		ledger:      ledger,
		cards:       cards,
		crypto:      crypto,
		events:      events,
		cardTimeout: cardTimeout,
	}
}

// Initiate starts a purchase. Card purchases confirm synchronously and
// return a terminal attempt; crypto purchases return pending with the
// designated receiving address and resolve later via ConfirmCrypto.
func (s *PaymentService) Initiate(ctx context.Context, account *model.Account, plan model.PlanTier, method model.PaymentMethod, payload json.RawMessage) (*model.PaymentAttempt, error) {
	if plan != model.PlanPremium {
		return nil, apperrors.InvalidInput("plan", "only the premium plan can be purchased")
	}

	switch method {
	case model.PaymentMethodCard:
		return s.initiateCard(ctx, account, plan, payload)
	case model.PaymentMethodCrypto:
		return s.initiateCrypto(ctx, account, plan, payload)
	default:
		return nil, apperrors.InvalidInput("payment_method", "must be card or crypto")
	}
}

func (s *PaymentService) initiateCard(ctx context.Context, account *model.Account, plan model.PlanTier, payload json.RawMessage) (*model.PaymentAttempt, error) {
	var card model.CardPayload
	if err := json.Unmarshal(payload, &card); err != nil {
		return nil, apperrors.InvalidPaymentPayload("malformed card payload")
	}

	attempt, err := s.createAttempt(ctx, account, plan, model.PaymentMethodCard, cardPayloadForStorage(card), nil, nil)
	if err != nil {
		return nil, err
	}

	if err := processor.ValidateCardPayload(card, time.Now()); err != nil {
		failed, rErr := s.resolve(ctx, attempt.ID, model.PaymentStatusFailed)
		if rErr != nil {
			return nil, rErr
		}
		return failed, apperrors.InvalidPaymentPayload(err.Error()).
			WithDetails(map[string]string{"attemptId": attempt.ID})
	}

	// The confirmation call is the only network-blocking operation in the
	// core; a timeout resolves the attempt to failed rather than leaving
	// it pending.
	confirmCtx, cancel := context.WithTimeout(ctx, s.cardTimeout)
	defer cancel()

	approved, err := s.cards.Confirm(confirmCtx, card)
	if err != nil {
		log.Warn().Err(err).
			Str("attemptId", attempt.ID).
			Msg("card confirmation failed, resolving attempt as failed")
		return s.resolve(ctx, attempt.ID, model.PaymentStatusFailed)
	}

	status := model.PaymentStatusFailed
	if approved {
		status = model.PaymentStatusCompleted
	}
	return s.resolve(ctx, attempt.ID, status)
}

func (s *PaymentService) initiateCrypto(ctx context.Context, account *model.Account, plan model.PlanTier, payload json.RawMessage) (*model.PaymentAttempt, error) {
	var crypto model.CryptoPayload
	if err := json.Unmarshal(payload, &crypto); err != nil {
		return nil, apperrors.InvalidPaymentPayload("malformed crypto payload")
	}
	if !crypto.Type.Valid() {
		return nil, apperrors.InvalidPaymentPayload("unsupported currency: " + string(crypto.Type))
	}

	address := s.crypto.ReceivingAddress(account.ID, crypto.Type)

	attempt, err := s.createAttempt(ctx, account, plan, model.PaymentMethodCrypto, payload, &crypto.Type, &address)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("attemptId", attempt.ID).
		Str("currency", string(crypto.Type)).
		Str("receivingAddress", address).
		Msg("crypto purchase initiated, awaiting on-chain confirmation")

	return attempt, nil
}

// ConfirmCrypto resolves a pending crypto attempt to completed. The
// external source may redeliver the same confirmation, so resolving an
// already-completed attempt is a no-op returning the attempt, not an
// error; only a failed attempt rejects the resolution.
func (s *PaymentService) ConfirmCrypto(ctx context.Context, attemptID string) (*model.PaymentAttempt, error) {
	attempt, err := s.paymentRepo.FindByID(ctx, attemptID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if attempt == nil {
		return nil, apperrors.NotFound("Payment attempt")
	}
	if attempt.Method != model.PaymentMethodCrypto {
		return nil, apperrors.InvalidInput("attempt", "not a crypto purchase")
	}

	switch attempt.Status {
	case model.PaymentStatusCompleted:
		log.Info().
			Str("attemptId", attemptID).
			Msg("crypto confirmation redelivered for completed attempt, no-op")
		return attempt, nil
	case model.PaymentStatusFailed:
		return nil, apperrors.AlreadyResolved(attemptID)
	}

	return s.resolve(ctx, attemptID, model.PaymentStatusCompleted)
}

func (s *PaymentService) ListForAccount(ctx context.Context, accountID string) ([]model.PaymentAttempt, error) {
	attempts, err := s.paymentRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return attempts, nil
}

// resolve performs the single pending -> terminal transition and, for
// completed attempts, credits the plan in the same transaction. A raced or
// redelivered resolution finds the attempt already terminal: completed is
// a no-op, anything else is AlreadyResolved.
func (s *PaymentService) resolve(ctx context.Context, attemptID string, status model.PaymentStatus) (*model.PaymentAttempt, error) {
	var resolved *model.PaymentAttempt

	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var txErr error
		resolved, txErr = s.paymentRepo.WithTx(tx).Resolve(ctx, attemptID, status)
		if txErr != nil {
			return apperrors.Database(txErr)
		}
		if resolved == nil {
			// Guard did not match; sorted out below, outside the tx.
			return nil
		}

		if status == model.PaymentStatusCompleted {
			_, txErr = s.ledger.SetPlanInTx(ctx, tx, resolved.AccountID, resolved.Plan, "payment", "payment:"+attemptID)
			return txErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if resolved == nil {
		current, err := s.paymentRepo.FindByID(ctx, attemptID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if current == nil {
			return nil, apperrors.NotFound("Payment attempt")
		}
		if current.Status == model.PaymentStatusCompleted && status == model.PaymentStatusCompleted {
			return current, nil
		}
		return nil, apperrors.AlreadyResolved(attemptID)
	}

	log.Info().
		Str("attemptId", attemptID).
		Str("accountId", resolved.AccountID).
		Str("status", string(status)).
		Msg("payment attempt resolved")

	audit.Log(ctx, audit.Event{
		Type:      audit.EventPaymentResolve,
		AccountID: resolved.AccountID,
		AttemptID: attemptID,
		Details: map[string]interface{}{
			"status": string(status),
			"method": string(resolved.Method),
		},
	})

	s.publishResolution(ctx, resolved)

	return resolved, nil
}

func (s *PaymentService) createAttempt(ctx context.Context, account *model.Account, plan model.PlanTier, method model.PaymentMethod, payload json.RawMessage, currency *model.CryptoCurrency, address *string) (*model.PaymentAttempt, error) {
	attempt, err := s.paymentRepo.Create(ctx, model.CreatePaymentAttemptParams{
		AccountID:        account.ID,
		Plan:             plan,
		AmountCents:      config.PremiumPriceCents,
		Currency:         config.PremiumCurrency,
		Method:           method,
		Payload:          payload,
		CryptoCurrency:   currency,
		ReceivingAddress: address,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return attempt, nil
}

func (s *PaymentService) publishResolution(ctx context.Context, attempt *model.PaymentAttempt) {
	if s.events == nil {
		return
	}

	event := sse.NewEvent(sse.EventPaymentResolved, map[string]any{
		"attemptId": attempt.ID,
		"status":    string(attempt.Status),
		"plan":      string(attempt.Plan),
		"method":    string(attempt.Method),
	})
	if err := s.events.Publish(ctx, attempt.AccountID, event); err != nil {
		log.Warn().Err(err).
			Str("attemptId", attempt.ID).
			Msg("failed to publish payment resolution event")
	}
}

// cardPayloadForStorage strips the CVV and masks the number before the
// payload touches the database.
func cardPayloadForStorage(card model.CardPayload) json.RawMessage {
	stored := map[string]string{
		"name":        card.Name,
		"card_number": util.MaskCardNumber(card.CardNumber),
		"expiry":      card.Expiry,
	}
	raw, _ := json.Marshal(stored)
	return raw
}
