package models

import (
	"encoding/json"
	"strings"
)

// Result is the tabular or scalar outcome of executing a plan. Cells are
// already rendered in canonical form (money rounded to two places, dates
// in RFC 3339 date form) so identical executions are byte-identical.
type Result struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Empty reports a valid zero-row result, which is not an error.
func (r *Result) Empty() bool {
	return len(r.Rows) == 0
}

// RowCount returns the number of result rows.
func (r *Result) RowCount() int {
	return len(r.Rows)
}

// JSON renders the result as compact JSON for the composer prompt.
func (r *Result) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Scalar returns the single cell of a 1x1 result, or false.
func (r *Result) Scalar() (string, bool) {
	if len(r.Rows) == 1 && len(r.Rows[0]) == 1 {
		return r.Rows[0][0], true
	}
	return "", false
}

// Markdown renders a small, pipe-delimited view of the result. Used by the
// order-status and MCP surfaces where raw JSON is too noisy.
func (r *Result) Markdown() string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(r.Columns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(r.Columns)) + "\n")
	for _, row := range r.Rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return b.String()
}
