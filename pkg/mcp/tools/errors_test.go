package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abilabs/insight-engine/pkg/apperrors"
)

func TestNewErrorResult(t *testing.T) {
	result := NewErrorResult("test_error", "this is a test error")

	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	assert.True(t, result.IsError)

	text := getTextContent(result)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(text), &errResp))

	assert.True(t, errResp.Error)
	assert.Equal(t, "test_error", errResp.Code)
	assert.Equal(t, "this is a test error", errResp.Message)
}

func TestResultForError_MapsPipelineSentinels(t *testing.T) {
	tests := []struct {
		err      error
		wantCode string
	}{
		{apperrors.ErrOrderNotFound, "order_not_found"},
		{apperrors.ErrUnknownCustomer, "unknown_customer"},
		{apperrors.ErrRoleNotAllowed, "role_not_allowed"},
		{apperrors.ErrUnknownColumn, "unknown_column"},
		{apperrors.ErrUnsupportedPlan, "unsupported_plan"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			wrapped := fmt.Errorf("context: %w", tt.err)
			result, ok := resultForError(wrapped)
			require.True(t, ok)

			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal([]byte(getTextContent(result)), &errResp))
			assert.Equal(t, tt.wantCode, errResp.Code)
		})
	}
}

func TestResultForError_SystemFailuresPropagate(t *testing.T) {
	_, ok := resultForError(errors.New("connection reset"))
	assert.False(t, ok)

	_, ok = resultForError(apperrors.ErrPlannerUnavailable)
	assert.False(t, ok, "availability failures are system errors, not tool results")
}
