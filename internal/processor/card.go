package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shadoom/entitlement-server-go/internal/model"
	"github.com/shadoom/entitlement-server-go/internal/util"
)

// CardProcessor is the card-network collaborator. Confirm is synchronous
// and must be called under a bounded timeout; the payment service resolves
// the attempt to failed when the deadline expires.
type CardProcessor interface {
	Confirm(ctx context.Context, payload model.CardPayload) (approved bool, err error)
}

// ValidateCardPayload checks the structural rules for a card payload:
// non-empty holder name, digits-only number of plausible length, MM/YY
// expiry not in the past, 3-4 digit CVV. It performs no network calls.
func ValidateCardPayload(payload model.CardPayload, now time.Time) error {
	if strings.TrimSpace(payload.Name) == "" {
		return fmt.Errorf("holder name is required")
	}

	number := strings.ReplaceAll(payload.CardNumber, " ", "")
	if !util.IsDigits(number) || len(number) < 13 || len(number) > 19 {
		return fmt.Errorf("card number must be 13-19 digits")
	}

	if !util.IsValidExpiry(payload.Expiry) {
		return fmt.Errorf("expiry must be MM/YY")
	}
	if expired(payload.Expiry, now) {
		return fmt.Errorf("card is expired")
	}

	if !util.IsDigits(payload.CVV) || len(payload.CVV) < 3 || len(payload.CVV) > 4 {
		return fmt.Errorf("CVV must be 3-4 digits")
	}

	return nil
}

func expired(expiry string, now time.Time) bool {
	// Shape is validated before this is called.
	var month, year int
	fmt.Sscanf(expiry, "%02d/%02d", &month, &year)
	year += 2000

	endOfMonth := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	return !now.Before(endOfMonth)
}

// StubCardProcessor stands in for a real card network. It approves every
// structurally valid card except the conventional declined test number
// suffix.
type StubCardProcessor struct {
	// Latency simulates network round-trip time; useful in tests that
	// exercise the confirmation timeout.
	Latency time.Duration
}

func NewStubCardProcessor() *StubCardProcessor {
	return &StubCardProcessor{}
}

const declinedSuffix = "0002"

func (p *StubCardProcessor) Confirm(ctx context.Context, payload model.CardPayload) (bool, error) {
	if p.Latency > 0 {
		select {
		case <-time.After(p.Latency):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}

	number := strings.ReplaceAll(payload.CardNumber, " ", "")
	return !strings.HasSuffix(number, declinedSuffix), nil
}
