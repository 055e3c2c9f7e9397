package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_PlainObject(t *testing.T) {
	got, err := ExtractJSON(`{"table": "orders"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"table": "orders"}`, got)
}

func TestExtractJSON_CodeFence(t *testing.T) {
	response := "```json\n{\"table\": \"orders\", \"limit\": 5}\n```"
	got, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.JSONEq(t, `{"table": "orders", "limit": 5}`, got)
}

func TestExtractJSON_SurroundingProse(t *testing.T) {
	response := `Here is the plan you asked for: {"table": "revenue"} hope that helps`
	got, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, `{"table": "revenue"}`, got)
}

func TestExtractJSON_ThinkTags(t *testing.T) {
	response := "<think>\nThe user wants orders.\n</think>\n{\"table\": \"orders\"}"
	got, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, `{"table": "orders"}`, got)
}

func TestExtractJSON_NestedBracesInStrings(t *testing.T) {
	response := `{"table": "orders", "note": "a { tricky } value"}`
	got, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, response, got)
}

func TestExtractJSON_Array(t *testing.T) {
	got, err := ExtractJSON(`prefix [1, 2, 3] suffix`)
	require.NoError(t, err)
	assert.Equal(t, `[1, 2, 3]`, got)
}

func TestExtractJSON_NoJSON(t *testing.T) {
	_, err := ExtractJSON("I could not produce a plan, sorry.")
	assert.Error(t, err)
}

func TestParseJSONResponse(t *testing.T) {
	type plan struct {
		Table string `json:"table"`
		Limit int    `json:"limit"`
	}

	p, err := ParseJSONResponse[plan]("```json\n{\"table\": \"products\", \"limit\": 3}\n```")
	require.NoError(t, err)
	assert.Equal(t, "products", p.Table)
	assert.Equal(t, 3, p.Limit)

	_, err = ParseJSONResponse[plan](`{"table": 7}`)
	assert.Error(t, err)
}
