package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/abilabs/insight-engine/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results. Errors the
// calling agent can act on are returned as successful tool results so the
// detail stays visible instead of being swallowed by the MCP client.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResult creates a tool result containing a structured error.
// System failures should still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// resultForError maps pipeline sentinels onto actionable tool errors.
// Anything unmapped is a system failure and propagates as a Go error.
func resultForError(err error) (*mcp.CallToolResult, bool) {
	switch {
	case errors.Is(err, apperrors.ErrOrderNotFound):
		return NewErrorResult("order_not_found", apperrors.ErrOrderNotFound.Error()), true
	case errors.Is(err, apperrors.ErrUnknownCustomer):
		return NewErrorResult("unknown_customer", apperrors.ErrUnknownCustomer.Error()), true
	case errors.Is(err, apperrors.ErrRoleNotAllowed):
		return NewErrorResult("role_not_allowed", apperrors.ErrRoleNotAllowed.Error()), true
	case errors.Is(err, apperrors.ErrUnknownColumn):
		return NewErrorResult("unknown_column", apperrors.ErrUnknownColumn.Error()), true
	case errors.Is(err, apperrors.ErrUnsupportedPlan):
		return NewErrorResult("unsupported_plan", apperrors.ErrUnsupportedPlan.Error()), true
	}
	return nil, false
}
