package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/assistant"
	"github.com/abilabs/insight-engine/pkg/logging"
)

// ForecastHandler exposes the business analytics reports: stock-out
// forecasts, delivery delays and revenue anomalies.
type ForecastHandler struct {
	svc    assistant.Service
	logger *zap.Logger
}

// NewForecastHandler creates a new ForecastHandler.
func NewForecastHandler(svc assistant.Service, logger *zap.Logger) *ForecastHandler {
	return &ForecastHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers the forecast handler's routes on the given mux.
func (h *ForecastHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/forecast/stock", h.Stock)
	mux.HandleFunc("GET /api/forecast/delays", h.Delays)
	mux.HandleFunc("GET /api/forecast/revenue", h.Revenue)
}

// Stock handles GET /api/forecast/stock.
func (h *ForecastHandler) Stock(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.StockForecast(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		h.writeFailure(w, "stock forecast", err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, records); err != nil {
		h.logger.Error("Failed to encode stock forecast response", zap.Error(err))
	}
}

// Delays handles GET /api/forecast/delays.
func (h *ForecastHandler) Delays(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.DelayReport(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		h.writeFailure(w, "delay report", err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, report); err != nil {
		h.logger.Error("Failed to encode delay report response", zap.Error(err))
	}
}

// Revenue handles GET /api/forecast/revenue.
func (h *ForecastHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.RevenueScan(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		h.writeFailure(w, "revenue scan", err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, report); err != nil {
		h.logger.Error("Failed to encode revenue scan response", zap.Error(err))
	}
}

func (h *ForecastHandler) writeFailure(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op+" failed", zap.String("error", logging.SanitizeError(err)))
	_ = WriteError(w, err)
}
