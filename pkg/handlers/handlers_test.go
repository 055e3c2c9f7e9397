package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/apperrors"
	"github.com/abilabs/insight-engine/pkg/assistant"
	"github.com/abilabs/insight-engine/pkg/config"
	"github.com/abilabs/insight-engine/pkg/models"
)

// stubService implements assistant.Service with canned behavior per test.
type stubService struct {
	askFunc      func(ctx context.Context, req assistant.AskRequest) (*assistant.AskResponse, error)
	orderFunc    func(ctx context.Context, identity, role, orderID string) (*models.OrderStatusInfo, error)
	forecastFunc func(ctx context.Context, role string) ([]models.ForecastRecord, error)
	delayFunc    func(ctx context.Context, role string) (*models.DelayReport, error)
	revenueFunc  func(ctx context.Context, role string) (*models.RevenueAnomalyReport, error)
}

func (s *stubService) Ask(ctx context.Context, req assistant.AskRequest) (*assistant.AskResponse, error) {
	return s.askFunc(ctx, req)
}

func (s *stubService) OrderStatus(ctx context.Context, identity, role, orderID string) (*models.OrderStatusInfo, error) {
	return s.orderFunc(ctx, identity, role, orderID)
}

func (s *stubService) StockForecast(ctx context.Context, role string) ([]models.ForecastRecord, error) {
	return s.forecastFunc(ctx, role)
}

func (s *stubService) DelayReport(ctx context.Context, role string) (*models.DelayReport, error) {
	return s.delayFunc(ctx, role)
}

func (s *stubService) RevenueScan(ctx context.Context, role string) (*models.RevenueAnomalyReport, error) {
	return s.revenueFunc(ctx, role)
}

var _ assistant.Service = (*stubService)(nil)

func TestHealthHandler(t *testing.T) {
	cfg := &config.Config{Version: "test-version", Env: "test"}
	handler := NewHealthHandler(cfg, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	handler.Ping(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PingResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "insight-engine", resp.Service)
	assert.Equal(t, "test-version", resp.Version)
}

func TestAskHandler_Success(t *testing.T) {
	svc := &stubService{
		askFunc: func(ctx context.Context, req assistant.AskRequest) (*assistant.AskResponse, error) {
			assert.Equal(t, "total revenue?", req.Question)
			return &assistant.AskResponse{
				Answer: "Total revenue is 165.47.",
				Result: &models.Result{Columns: []string{"sum_amount"}, Rows: [][]string{{"165.47"}}},
			}, nil
		},
	}
	handler := NewAskHandler(svc, zap.NewNop())

	body := `{"question": "total revenue?", "role": "business"}`
	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Ask(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp assistant.AskResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Total revenue is 165.47.", resp.Answer)
}

func TestAskHandler_BadBody(t *testing.T) {
	handler := NewAskHandler(&stubService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.Ask(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unsupported plan", apperrors.ErrUnsupportedPlan, http.StatusUnprocessableEntity, "unsupported_plan"},
		{"unknown column", apperrors.ErrUnknownColumn, http.StatusUnprocessableEntity, "unknown_column"},
		{"unknown customer", apperrors.ErrUnknownCustomer, http.StatusForbidden, "unknown_customer"},
		{"planner down", apperrors.ErrPlannerUnavailable, http.StatusServiceUnavailable, "planner_unavailable"},
		{"composer down", apperrors.ErrComposerUnavailable, http.StatusServiceUnavailable, "composer_unavailable"},
		{"data unavailable", apperrors.ErrDataUnavailable, http.StatusServiceUnavailable, "data_unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{
				askFunc: func(ctx context.Context, req assistant.AskRequest) (*assistant.AskResponse, error) {
					return nil, tt.err
				},
			}
			handler := NewAskHandler(svc, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question":"q","role":"business"}`))
			rec := httptest.NewRecorder()
			handler.Ask(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body["error"])
		})
	}
}

func TestOrderHandler_NotFoundNeverDistinguishesOwnership(t *testing.T) {
	svc := &stubService{
		orderFunc: func(ctx context.Context, identity, role, orderID string) (*models.OrderStatusInfo, error) {
			return nil, apperrors.ErrOrderNotFound
		},
	}
	mux := http.NewServeMux()
	NewOrderHandler(svc, zap.NewNop()).RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/ord-003/status?identity=cust-001&role=customer", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "order_not_found", body["error"])
	// The body must not hint at whose order it is.
	assert.NotContains(t, rec.Body.String(), "cust-")
}

func TestOrderHandler_Success(t *testing.T) {
	svc := &stubService{
		orderFunc: func(ctx context.Context, identity, role, orderID string) (*models.OrderStatusInfo, error) {
			assert.Equal(t, "ord-002", orderID)
			assert.Equal(t, "cust-001", identity)
			return &models.OrderStatusInfo{OrderID: orderID, Status: models.OrderShipped}, nil
		},
	}
	mux := http.NewServeMux()
	NewOrderHandler(svc, zap.NewNop()).RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/ord-002/status?identity=cust-001&role=customer", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var info models.OrderStatusInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, "ord-002", info.OrderID)
}

func TestForecastHandler_RoleGate(t *testing.T) {
	svc := &stubService{
		forecastFunc: func(ctx context.Context, role string) ([]models.ForecastRecord, error) {
			if role != "business" {
				return nil, apperrors.ErrRoleNotAllowed
			}
			return []models.ForecastRecord{{ProductID: "prod-001", Risk: models.RiskCritical}}, nil
		},
	}
	mux := http.NewServeMux()
	NewForecastHandler(svc, zap.NewNop()).RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/forecast/stock?role=business", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []models.ForecastRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, models.RiskCritical, records[0].Risk)

	req = httptest.NewRequest(http.MethodGet, "/api/forecast/stock?role=customer", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
