package handler

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/shadoom/entitlement-server-go/internal/errors"
	"github.com/shadoom/entitlement-server-go/internal/middleware"
	"github.com/shadoom/entitlement-server-go/internal/model"
	"github.com/shadoom/entitlement-server-go/internal/service"
)

type AnalysisHandler struct {
	analysisService *service.AnalysisService
}

func NewAnalysisHandler(analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

type analyzeRequest struct {
	Platform model.Platform `json:"platform"`
	Handle   string         `json:"handle"`
}

func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}

	analysis, err := h.analysisService.Analyze(r.Context(), account, req.Platform, req.Handle)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}
