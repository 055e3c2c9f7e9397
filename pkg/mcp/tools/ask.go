package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/assistant"
	"github.com/abilabs/insight-engine/pkg/logging"
)

// Deps contains the dependencies shared by all assistant tools.
type Deps struct {
	Service assistant.Service
	Logger  *zap.Logger
}

// RegisterAskTool adds the natural-language query tool.
func RegisterAskTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"ask",
		mcp.WithDescription("Answers a natural-language question about orders, products, customers or revenue, scoped to the caller"),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer"),
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
		question, err := req.RequireString("question")
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

		resp, err := deps.Service.Ask(ctx, assistant.AskRequest{
			Question: question,
			Role:     role,
			Identity: identity,
		})
		if err != nil {
			if result, ok := resultForError(err); ok {
				return result, nil
			}
			deps.Logger.Error("ask tool failed",
				zap.String("question", logging.SanitizeQuestion(question)),
				zap.String("error", logging.SanitizeError(err)))
			return nil, fmt.Errorf("ask failed: %w", err)
		}

		result, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal ask result: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
