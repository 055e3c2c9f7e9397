package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/assistant"
	"github.com/abilabs/insight-engine/pkg/logging"
)

// OrderHandler exposes the scoped order-status lookup.
type OrderHandler struct {
	svc    assistant.Service
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc assistant.Service, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers the order handler's routes on the given mux.
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/orders/{oid}/status", h.Status)
}

// Status handles GET /api/orders/{oid}/status. Identity and role arrive
// as query parameters; an order outside the caller's scope reads as 404.
func (h *OrderHandler) Status(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("oid")
	identity := r.URL.Query().Get("identity")
	role := r.URL.Query().Get("role")

	info, err := h.svc.OrderStatus(r.Context(), identity, role, orderID)
	if err != nil {
		h.logger.Debug("order status lookup failed",
			zap.String("order_id", orderID),
			zap.String("subject", logging.MaskSubjectID(identity)),
			zap.String("error", logging.SanitizeError(err)))
		_ = WriteError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, info); err != nil {
		h.logger.Error("Failed to encode order status response", zap.Error(err))
	}
}
