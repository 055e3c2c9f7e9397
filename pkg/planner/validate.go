package planner

import (
	"fmt"

	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/abilabs/insight-engine/pkg/apperrors"
	"github.com/abilabs/insight-engine/pkg/models"
	"github.com/abilabs/insight-engine/pkg/schema"
)

// MaxLimit caps how many rows a single plan may return. Larger limits are
// clamped rather than rejected; the model frequently asks for "all".
const MaxLimit = 500

// Validate checks a plan against the schema registry, the operator
// whitelists, and the caller's scope. It returns a descriptive error
// wrapping apperrors.ErrUnsupportedPlan or apperrors.ErrUnknownColumn;
// the message is fed back to the model on the single re-plan attempt.
func Validate(plan *models.QueryPlan, accessScope models.AccessScope) error {
	if plan == nil {
		return fmt.Errorf("empty plan: %w", apperrors.ErrUnsupportedPlan)
	}
	if !schema.HasTable(plan.Table) {
		return fmt.Errorf("table %q is not queryable: %w", plan.Table, apperrors.ErrUnsupportedPlan)
	}

	for _, col := range plan.Columns {
		if err := requireColumn(plan.Table, col); err != nil {
			return err
		}
	}

	for _, f := range plan.Filters {
		if err := validateFilter(plan.Table, f); err != nil {
			return err
		}
	}

	if len(plan.GroupBy) > 0 && plan.Aggregate == nil {
		return fmt.Errorf("group_by requires an aggregate: %w", apperrors.ErrUnsupportedPlan)
	}
	for _, col := range plan.GroupBy {
		if err := requireColumn(plan.Table, col); err != nil {
			return err
		}
	}

	if agg := plan.Aggregate; agg != nil {
		if !accessScope.Business() {
			// Aggregates reveal figures across the whole table. Customer
			// sessions get row lookups only.
			return fmt.Errorf("aggregates are not available in this session: %w", apperrors.ErrUnsupportedPlan)
		}
		if !schema.ValidAggregate(agg.Op) {
			return fmt.Errorf("aggregate %q is not supported: %w", agg.Op, apperrors.ErrUnsupportedPlan)
		}
		if !schema.AggregatableColumn(agg.Op, plan.Table, agg.Column) {
			return fmt.Errorf("aggregate %s(%s) is not valid for table %q: %w",
				agg.Op, agg.Column, plan.Table, apperrors.ErrUnsupportedPlan)
		}
	}

	if s := plan.Sort; s != nil {
		if err := validateSort(plan, s); err != nil {
			return err
		}
	}

	if plan.Limit < 0 {
		return fmt.Errorf("negative limit: %w", apperrors.ErrUnsupportedPlan)
	}
	if plan.Limit > MaxLimit {
		plan.Limit = MaxLimit
	}

	return nil
}

func requireColumn(table, column string) error {
	if _, ok := schema.Lookup(table, column); !ok {
		return fmt.Errorf("table %q has no column %q: %w", table, column, apperrors.ErrUnknownColumn)
	}
	return nil
}

func validateFilter(table string, f models.Filter) error {
	col, ok := schema.Lookup(table, f.Column)
	if !ok {
		return fmt.Errorf("table %q has no column %q: %w", table, f.Column, apperrors.ErrUnknownColumn)
	}

	switch f.Op {
	case models.OpEq, models.OpNe, models.OpLt, models.OpLte, models.OpGt, models.OpGte,
		models.OpContains, models.OpIn, models.OpNotIn:
	default:
		return fmt.Errorf("filter operator %q is not supported: %w", f.Op, apperrors.ErrUnsupportedPlan)
	}

	if f.Value == "" {
		return fmt.Errorf("filter on %q has no value: %w", f.Column, apperrors.ErrUnsupportedPlan)
	}

	if f.Value == models.NowValue && col.Kind != schema.KindTime {
		return fmt.Errorf("value %q only applies to date columns: %w", models.NowValue, apperrors.ErrUnsupportedPlan)
	}

	if (f.Op == models.OpLt || f.Op == models.OpLte || f.Op == models.OpGt || f.Op == models.OpGte) &&
		col.Kind == schema.KindString && f.Column != "id" {
		return fmt.Errorf("ordering comparison on text column %q: %w", f.Column, apperrors.ErrUnsupportedPlan)
	}

	// Filter values come straight from model output. They are compared
	// in memory and never interpolated into SQL, but a value carrying an
	// injection fingerprint means the model is relaying attacker text, so
	// the plan is rejected outright.
	for _, v := range filterLiterals(f) {
		if isSQLi, fingerprint := libinjection.IsSQLi(v); isSQLi {
			return fmt.Errorf("filter value rejected (fingerprint %s): %w",
				fingerprint, apperrors.ErrUnsupportedPlan)
		}
	}

	return nil
}

func filterLiterals(f models.Filter) []string {
	if f.Op == models.OpIn || f.Op == models.OpNotIn {
		return f.Values()
	}
	return []string{f.Value}
}

// validateSort ensures the sort column exists in the plan's output. For a
// plain plan that is any schema column; for an aggregated plan it must be
// a group-by column or the aggregate output column.
func validateSort(plan *models.QueryPlan, s *models.Sort) error {
	if !plan.Aggregated() {
		return requireColumn(plan.Table, s.Column)
	}

	for _, col := range plan.GroupBy {
		if s.Column == col {
			return nil
		}
	}
	if s.Column == AggregateColumnName(plan.Aggregate) {
		return nil
	}
	return fmt.Errorf("sort column %q is not in the aggregated output: %w",
		s.Column, apperrors.ErrUnknownColumn)
}

// AggregateColumnName is the output column name for an aggregate, e.g.
// "sum_amount" or "count".
func AggregateColumnName(agg *models.Aggregate) string {
	if agg.Column == "" {
		return string(agg.Op)
	}
	return string(agg.Op) + "_" + agg.Column
}
