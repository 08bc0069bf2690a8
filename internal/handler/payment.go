package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/shadoom/entitlement-server-go/internal/errors"
	"github.com/shadoom/entitlement-server-go/internal/middleware"
	"github.com/shadoom/entitlement-server-go/internal/model"
	"github.com/shadoom/entitlement-server-go/internal/service"
	"github.com/shadoom/entitlement-server-go/internal/util"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
}

func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

type purchaseRequest struct {
	Plan    model.PlanTier      `json:"plan"`
	Method  model.PaymentMethod `json:"paymentMethod"`
	Payload json.RawMessage     `json:"paymentData"`
}

// Initiate starts a purchase. Card purchases come back terminal; crypto
// purchases come back pending with the receiving address in the attempt.
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}
	if len(req.Payload) == 0 {
		writeError(w, apperrors.MissingRequired("paymentData"))
		return
	}

	attempt, err := h.paymentService.Initiate(r.Context(), account, req.Plan, req.Method, req.Payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, attempt)
}

// ConfirmCrypto resolves a pending crypto attempt. The caller is the
// external confirmation source; redelivery of a completed attempt is a
// 200 no-op.
func (h *PaymentHandler) ConfirmCrypto(w http.ResponseWriter, r *http.Request) {
	attemptID := chi.URLParam(r, "id")

	if !util.IsValidUUID(attemptID) {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}

	attempt, err := h.paymentService.ConfirmCrypto(r.Context(), attemptID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, attempt)
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	attempts, err := h.paymentService.ListForAccount(r.Context(), account.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"payments": attempts})
}
