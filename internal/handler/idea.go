package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/shadoom/entitlement-server-go/internal/errors"
	"github.com/shadoom/entitlement-server-go/internal/middleware"
	"github.com/shadoom/entitlement-server-go/internal/service"
	"github.com/shadoom/entitlement-server-go/internal/util"
)

type IdeaHandler struct {
	ideaService *service.IdeaService
}

func NewIdeaHandler(ideaService *service.IdeaService) *IdeaHandler {
	return &IdeaHandler{ideaService: ideaService}
}

type generateIdeasRequest struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

func (h *IdeaHandler) Generate(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	var req generateIdeasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}

	ideas, err := h.ideaService.Generate(r.Context(), account, req.Topic, req.Count)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ideas": ideas})
}

func (h *IdeaHandler) List(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	ideas, err := h.ideaService.List(r.Context(), account.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ideas": ideas})
}

func (h *IdeaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	ideaID := chi.URLParam(r, "id")

	if !util.IsValidUUID(ideaID) {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}

	if err := h.ideaService.Delete(r.Context(), account, ideaID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
