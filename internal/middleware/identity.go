package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/shadoom/entitlement-server-go/internal/model"
	"github.com/shadoom/entitlement-server-go/internal/repository"
)

type contextKey string

const AccountContextKey contextKey = "account"

// IdentityHeader carries the verified email of the caller. The upstream
// gateway authenticates the user and forwards the identity; this server
// trusts the header and resolves it to an account.
const IdentityHeader = "X-Identity-Email"

func GetAccount(ctx context.Context) *model.Account {
	if account, ok := ctx.Value(AccountContextKey).(*model.Account); ok {
		return account
	}
	return nil
}

type IdentityMiddleware struct {
	accountRepo repository.AccountRepository
}

func NewIdentityMiddleware(accountRepo repository.AccountRepository) *IdentityMiddleware {
	return &IdentityMiddleware{accountRepo: accountRepo}
}

func (m *IdentityMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.Header.Get(IdentityHeader))
		if email == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing identity",
			})
			return
		}

		account, err := m.accountRepo.FindByEmail(r.Context(), strings.ToLower(email))
		if err != nil {
			log.Error().Err(err).Msg("identity middleware: database error")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Identity resolution failed",
			})
			return
		}

		if account == nil {
			log.Warn().Str("email", email).Msg("identity middleware: unknown account")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unknown account",
			})
			return
		}

		ctx := context.WithValue(r.Context(), AccountContextKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
