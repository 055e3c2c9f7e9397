package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/assistant"
	"github.com/abilabs/insight-engine/pkg/logging"
)

// AskHandler exposes the natural-language query pipeline.
type AskHandler struct {
	svc    assistant.Service
	logger *zap.Logger
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(svc assistant.Service, logger *zap.Logger) *AskHandler {
	return &AskHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers the ask handler's routes on the given mux.
func (h *AskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/ask", h.Ask)
}

// Ask handles POST /api/ask requests.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req assistant.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}

	resp, err := h.svc.Ask(r.Context(), req)
	if err != nil {
		h.logger.Warn("ask failed",
			zap.String("question", logging.SanitizeQuestion(req.Question)),
			zap.String("error", logging.SanitizeError(err)))
		_ = WriteError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode ask response", zap.Error(err))
	}
}
