package models

import "strings"

// FilterOp is a comparison operator in a plan filter predicate.
type FilterOp string

const (
	OpEq       FilterOp = "eq"
	OpNe       FilterOp = "ne"
	OpLt       FilterOp = "lt"
	OpLte      FilterOp = "lte"
	OpGt       FilterOp = "gt"
	OpGte      FilterOp = "gte"
	OpContains FilterOp = "contains"
	OpIn       FilterOp = "in"
	OpNotIn    FilterOp = "not_in"
)

// AggregateOp is a whitelisted aggregate operator.
type AggregateOp string

const (
	AggSum   AggregateOp = "sum"
	AggCount AggregateOp = "count"
	AggAvg   AggregateOp = "avg"
	AggMin   AggregateOp = "min"
	AggMax   AggregateOp = "max"
)

// NowValue is the sentinel filter value resolved against the executor's
// clock, so plans stay declarative ("estimated_delivery lt now") while a
// fixed (plan, scope, snapshot, now) tuple stays deterministic.
const NowValue = "now"

// Filter is one predicate over a column. Values for OpIn/OpNotIn are
// comma-separated lists.
type Filter struct {
	Column string   `json:"column"`
	Op     FilterOp `json:"op"`
	Value  string   `json:"value"`
}

// Values splits a list-valued filter into its members.
func (f Filter) Values() []string {
	parts := strings.Split(f.Value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Aggregate describes a whitelisted aggregation. Column is empty for
// count over rows.
type Aggregate struct {
	Op     AggregateOp `json:"op"`
	Column string      `json:"column,omitempty"`
}

// Sort orders the result by one column. The executor always adds a row-id
// tie-break so output order is total.
type Sort struct {
	Column     string `json:"column"`
	Descending bool   `json:"descending,omitempty"`
}

// QueryPlan is the validated, declarative description of a computation
// over one of the four known tables. It is the only thing the execution
// engine accepts; raw model text never reaches execution.
type QueryPlan struct {
	Table     string     `json:"table"`
	Columns   []string   `json:"columns,omitempty"`
	Filters   []Filter   `json:"filters,omitempty"`
	GroupBy   []string   `json:"group_by,omitempty"`
	Aggregate *Aggregate `json:"aggregate,omitempty"`
	Sort      *Sort      `json:"sort,omitempty"`
	Limit     int        `json:"limit,omitempty"`
}

// Aggregated reports whether the plan reduces rows to aggregate values.
func (p *QueryPlan) Aggregated() bool {
	return p.Aggregate != nil
}
