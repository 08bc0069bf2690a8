package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/shadoom/entitlement-server-go/internal/audit"
	"github.com/shadoom/entitlement-server-go/internal/middleware"
	"github.com/shadoom/entitlement-server-go/internal/service"
	"github.com/shadoom/entitlement-server-go/internal/util"
)

type AdminHandler struct {
	adminService      *service.AdminService
	accountService    *service.AccountService
	sessionMiddleware func(http.Handler) http.Handler
	loginRateLimiter  *middleware.LoginRateLimiter
	isProduction      bool
}

func NewAdminHandler(
	adminService *service.AdminService,
	accountService *service.AccountService,
	sessionMiddleware func(http.Handler) http.Handler,
	isProduction bool,
) *AdminHandler {
	return &AdminHandler{
		adminService:      adminService,
		accountService:    accountService,
		sessionMiddleware: sessionMiddleware,
		loginRateLimiter:  middleware.NewLoginRateLimiter(),
		isProduction:      isProduction,
	}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.loginRateLimiter.Handler).Post("/api/login", h.Login)
	r.Post("/api/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(h.sessionMiddleware)
		r.Get("/api/dashboard", h.Dashboard)

		r.Get("/api/accounts", h.ListAccounts)
		r.Get("/api/accounts/{id}/plan-history", h.PlanHistory)
		r.Post("/api/accounts/{id}/promote", h.Promote)
		r.Post("/api/accounts/{id}/demote", h.Demote)

		r.Get("/api/payments", h.ListPayments)
	})

	return r
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password is required"})
		return
	}

	token, err := h.adminService.Login(r.Context(), req.Password)
	if err != nil {
		log.Error().Err(err).Msg("admin login error")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Login failed"})
		return
	}

	if token == "" {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginFailure})
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid password"})
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginSuccess})
	middleware.SetSessionCookie(w, middleware.AdminSessionCookie, token, "/admin", h.isProduction)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.AdminSessionCookie)
	if err == nil && cookie.Value != "" {
		h.adminService.Logout(r.Context(), cookie.Value)
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout})
	middleware.ClearSessionCookie(w, middleware.AdminSessionCookie, "/admin")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Dashboard(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to build dashboard")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)

	accounts, err := h.adminService.ListAccounts(r.Context(), p.Limit, p.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (h *AdminHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)

	attempts, err := h.adminService.ListPayments(r.Context(), p.Limit, p.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"payments": attempts})
}

func (h *AdminHandler) PlanHistory(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if !util.IsValidUUID(accountID) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid account id format"})
		return
	}

	entries, err := h.accountService.PlanHistory(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (h *AdminHandler) Promote(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if !util.IsValidUUID(accountID) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid account id format"})
		return
	}

	account, err := h.adminService.PromoteAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventAdminPromote, AccountID: accountID})
	writeJSON(w, http.StatusOK, account)
}

func (h *AdminHandler) Demote(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if !util.IsValidUUID(accountID) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid account id format"})
		return
	}

	account, err := h.adminService.DemoteAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventAdminDemote, AccountID: accountID})
	writeJSON(w, http.StatusOK, account)
}
