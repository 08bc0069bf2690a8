package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/shadoom/entitlement-server-go/internal/errors"
	"github.com/shadoom/entitlement-server-go/internal/model"
	"github.com/shadoom/entitlement-server-go/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
}

func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

type createAccountRequest struct {
	Email           string  `json:"email"`
	Name            string  `json:"name"`
	ProfilePic      *string `json:"profilePic"`
	InstagramHandle *string `json:"instagramHandle"`
	TikTokHandle    *string `json:"tiktokHandle"`
	KwaiHandle      *string `json:"kwaiHandle"`
}

// Create registers the verified identity, or returns the existing account
// when the email is already known. The identity-verifying proxy calls this
// on first login, so replays are routine and harmless.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}

	account, err := h.accountService.CreateOrFetch(r.Context(), model.CreateAccountParams{
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		Name:            strings.TrimSpace(req.Name),
		ProfilePic:      req.ProfilePic,
		InstagramHandle: req.InstagramHandle,
		TikTokHandle:    req.TikTokHandle,
		KwaiHandle:      req.KwaiHandle,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(chi.URLParam(r, "email"))

	account, err := h.accountService.GetByEmail(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}
