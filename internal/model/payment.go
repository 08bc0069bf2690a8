package model

import (
	"encoding/json"
	"time"
)

// PaymentAttempt models one purchase from creation to terminal outcome.
// It transitions exactly once from pending to completed or failed and is
// immutable thereafter.
type PaymentAttempt struct {
	ID               string          `db:"id" json:"id"`
	AccountID        string          `db:"account_id" json:"accountId"`
	Plan             PlanTier        `db:"plan" json:"plan"`
	AmountCents      int64           `db:"amount_cents" json:"amountCents"`
	Currency         string          `db:"currency" json:"currency"`
	Method           PaymentMethod   `db:"method" json:"method"`
	Payload          json.RawMessage `db:"payload" json:"-"`
	Status           PaymentStatus   `db:"status" json:"status"`
	CryptoCurrency   *CryptoCurrency `db:"crypto_currency" json:"cryptoCurrency,omitempty"`
	ReceivingAddress *string         `db:"receiving_address" json:"receivingAddress,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"createdAt"`
	ResolvedAt       *time.Time      `db:"resolved_at" json:"resolvedAt,omitempty"`
}

type CreatePaymentAttemptParams struct {
	AccountID        string
	Plan             PlanTier
	AmountCents      int64
	Currency         string
	Method           PaymentMethod
	Payload          json.RawMessage
	CryptoCurrency   *CryptoCurrency
	ReceivingAddress *string
}

// CardPayload is the method-specific payload for card purchases. Only
// structural validity is checked; no real card network is involved.
type CardPayload struct {
	Name       string `json:"name"`
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

// CryptoPayload is the method-specific payload for crypto purchases.
type CryptoPayload struct {
	Type    CryptoCurrency `json:"type"`
	Address string         `json:"address"`
}
