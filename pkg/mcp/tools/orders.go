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

// RegisterOrderStatusTool adds the scoped order-status lookup tool.
func RegisterOrderStatusTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"get_order_status",
		mcp.WithDescription("Returns the status and delivery outlook of one order visible to the caller"),
		mcp.WithString("order_id",
			mcp.Required(),
			mcp.Description("The order id to look up"),
		),
		mcp.WithString("role",
			mcp.Required(),
			mcp.Description("Caller role: customer or business"),
		),
		mcp.WithString("identity",
			mcp.Description("Customer id, required when role is customer"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		orderID, err := req.RequireString("order_id")
		if err != nil {
			return NewErrorResult("invalid_params", err.Error()), nil
		}
		role, err := req.RequireString("role")
		if err != nil {
			return NewErrorResult("invalid_params", err.Error()), nil
		}
		identity := ""
		if args, ok := req.Params.Arguments.(map[string]any); ok {
			if v, ok := args["identity"].(string); ok {
				identity = v
			}
		}

		info, err := deps.Service.OrderStatus(ctx, identity, role, orderID)
		if err != nil {
			if result, ok := resultForError(err); ok {
				return result, nil
			}
			deps.Logger.Error("order status tool failed",
				zap.String("order_id", orderID),
				zap.String("error", logging.SanitizeError(err)))
			return nil, fmt.Errorf("order status failed: %w", err)
		}

		result, err := json.Marshal(info)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal order status result: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
