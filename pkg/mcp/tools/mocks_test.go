package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/abilabs/insight-engine/pkg/assistant"
	"github.com/abilabs/insight-engine/pkg/models"
)

// mockService implements assistant.Service with per-test function fields.
type mockService struct {
	askFunc      func(ctx context.Context, req assistant.AskRequest) (*assistant.AskResponse, error)
	orderFunc    func(ctx context.Context, identity, role, orderID string) (*models.OrderStatusInfo, error)
	forecastFunc func(ctx context.Context, role string) ([]models.ForecastRecord, error)
	delayFunc    func(ctx context.Context, role string) (*models.DelayReport, error)
	revenueFunc  func(ctx context.Context, role string) (*models.RevenueAnomalyReport, error)
}

func (m *mockService) Ask(ctx context.Context, req assistant.AskRequest) (*assistant.AskResponse, error) {
	return m.askFunc(ctx, req)
}

func (m *mockService) OrderStatus(ctx context.Context, identity, role, orderID string) (*models.OrderStatusInfo, error) {
	return m.orderFunc(ctx, identity, role, orderID)
}

func (m *mockService) StockForecast(ctx context.Context, role string) ([]models.ForecastRecord, error) {
	return m.forecastFunc(ctx, role)
}

func (m *mockService) DelayReport(ctx context.Context, role string) (*models.DelayReport, error) {
	return m.delayFunc(ctx, role)
}

func (m *mockService) RevenueScan(ctx context.Context, role string) (*models.RevenueAnomalyReport, error) {
	return m.revenueFunc(ctx, role)
}

var _ assistant.Service = (*mockService)(nil)

// getTextContent extracts the text string from the first text content item.
func getTextContent(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	jsonBytes, _ := json.Marshal(result.Content[0])
	var textContent struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	json.Unmarshal(jsonBytes, &textContent)
	return textContent.Text
}
