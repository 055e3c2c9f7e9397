package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/logging"
)

// RegisterForecastTools adds the business analytics tools: stock-out
// forecasts, delivery delay reports and revenue anomaly scans.
func RegisterForecastTools(s *server.MCPServer, deps *Deps) {
	registerStockForecastTool(s, deps)
	registerDelayReportTool(s, deps)
	registerRevenueScanTool(s, deps)
}

func registerStockForecastTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"get_stock_forecast",
		mcp.WithDescription("Projects days until stock-out per product with a risk band, worst first"),
		mcp.WithString("role",
			mcp.Required(),
			mcp.Description("Caller role; must be business"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		role, err := req.RequireString("role")
		if err != nil {
			return NewErrorResult("invalid_params", err.Error()), nil
		}

		records, err := deps.Service.StockForecast(ctx, role)
		if err != nil {
			return forecastFailure(deps, "stock forecast", err)
		}
		return marshalResult(records)
	})
}

func registerDelayReportTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"check_for_critical_delays",
		mcp.WithDescription("Categorizes pending orders as overdue, at risk or on track"),
		mcp.WithString("role",
			mcp.Required(),
			mcp.Description("Caller role; must be business"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		role, err := req.RequireString("role")
		if err != nil {
			return NewErrorResult("invalid_params", err.Error()), nil
		}

		report, err := deps.Service.DelayReport(ctx, role)
		if err != nil {
			return forecastFailure(deps, "delay report", err)
		}
		return marshalResult(report)
	})
}

func registerRevenueScanTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"check_for_revenue_anomalies",
		mcp.WithDescription("Flags anomalous recent revenue transactions and labels the trend"),
		mcp.WithString("role",
			mcp.Required(),
			mcp.Description("Caller role; must be business"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		role, err := req.RequireString("role")
		if err != nil {
			return NewErrorResult("invalid_params", err.Error()), nil
		}

		report, err := deps.Service.RevenueScan(ctx, role)
		if err != nil {
			return forecastFailure(deps, "revenue scan", err)
		}
		return marshalResult(report)
	})
}

func forecastFailure(deps *Deps, op string, err error) (*mcp.CallToolResult, error) {
	if result, ok := resultForError(err); ok {
		return result, nil
	}
	deps.Logger.Error(op+" tool failed", zap.String("error", logging.SanitizeError(err)))
	return nil, fmt.Errorf("%s failed: %w", op, err)
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	result, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(result)), nil
}
