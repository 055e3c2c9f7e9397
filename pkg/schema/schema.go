// Package schema is the single source of truth for the tables and columns
// a query plan may reference. Anything outside this registry is rejected
// before execution.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/abilabs/insight-engine/pkg/models"
)

// Table names of the four known entity collections.
const (
	TableCustomers = "customers"
	TableOrders    = "orders"
	TableProducts  = "products"
	TableRevenue   = "revenue"
)

// Kind is the value type of a column, used to pick comparison and
// aggregation semantics.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindMoney
	KindTime
)

// Column describes one whitelisted column.
type Column struct {
	Name string
	Kind Kind
}

var registry = map[string][]Column{
	TableCustomers: {
		{Name: "id", Kind: KindString},
		{Name: "name", Kind: KindString},
		{Name: "email", Kind: KindString},
		{Name: "region", Kind: KindString},
	},
	TableOrders: {
		{Name: "id", Kind: KindString},
		{Name: "customer_id", Kind: KindString},
		{Name: "product_id", Kind: KindString},
		{Name: "status", Kind: KindString},
		{Name: "order_date", Kind: KindTime},
		{Name: "ship_date", Kind: KindTime},
		{Name: "estimated_delivery", Kind: KindTime},
		{Name: "shipping_method", Kind: KindString},
	},
	TableProducts: {
		{Name: "id", Kind: KindString},
		{Name: "name", Kind: KindString},
		{Name: "category", Kind: KindString},
		{Name: "price", Kind: KindMoney},
		{Name: "stock_level", Kind: KindInt},
	},
	TableRevenue: {
		{Name: "id", Kind: KindString},
		{Name: "order_id", Kind: KindString},
		{Name: "amount", Kind: KindMoney},
		{Name: "date", Kind: KindTime},
		{Name: "payment_method", Kind: KindString},
	},
}

// TableNames returns the whitelisted table names in sorted order.
func TableNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasTable reports whether the table is one of the four known entities.
func HasTable(table string) bool {
	_, ok := registry[table]
	return ok
}

// Columns returns the column list for a table.
func Columns(table string) ([]Column, bool) {
	cols, ok := registry[table]
	return cols, ok
}

// ColumnNames returns the column names for a table in schema order.
func ColumnNames(table string) []string {
	cols := registry[table]
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// Lookup resolves a column within a table.
func Lookup(table, column string) (Column, bool) {
	for _, c := range registry[table] {
		if c.Name == column {
			return c, true
		}
	}
	return Column{}, false
}

// ValidAggregate reports whether the operator is whitelisted.
func ValidAggregate(op models.AggregateOp) bool {
	switch op {
	case models.AggSum, models.AggCount, models.AggAvg, models.AggMin, models.AggMax:
		return true
	}
	return false
}

// AggregatableColumn reports whether op may be applied to table.column.
// Count takes any column (or none); sum/avg need numeric values; min/max
// also order dates.
func AggregatableColumn(op models.AggregateOp, table, column string) bool {
	if op == models.AggCount {
		return column == "" || hasColumn(table, column)
	}
	col, ok := Lookup(table, column)
	if !ok {
		return false
	}
	switch op {
	case models.AggSum, models.AggAvg:
		return col.Kind == KindMoney || col.Kind == KindInt
	case models.AggMin, models.AggMax:
		return col.Kind != KindString
	}
	return false
}

func hasColumn(table, column string) bool {
	_, ok := Lookup(table, column)
	return ok
}

// PromptText renders the schema for the planner prompt: one line per
// table with its singular entity name and columns.
func PromptText() string {
	var b strings.Builder
	for _, name := range TableNames() {
		fmt.Fprintf(&b, "- %s (entity: %s): %s\n",
			name, inflection.Singular(name), strings.Join(ColumnNames(name), ", "))
	}
	return b.String()
}
