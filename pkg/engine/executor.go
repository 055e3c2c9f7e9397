// Package engine executes validated query plans against an in-memory
// snapshot. Execution is fully deterministic: the same (plan, scope,
// snapshot, now) tuple always yields the same result, cell for cell.
// Money arithmetic runs on decimals; floats never touch an amount.
package engine

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/apperrors"
	"github.com/abilabs/insight-engine/pkg/models"
	"github.com/abilabs/insight-engine/pkg/planner"
	"github.com/abilabs/insight-engine/pkg/schema"
	"github.com/abilabs/insight-engine/pkg/store"
)

// DateLayout is the canonical rendering for date cells.
const DateLayout = "2006-01-02"

// Executor runs plans over snapshots. The clock is injected so "now"
// filters are reproducible in tests.
type Executor struct {
	clock  func() time.Time
	logger *zap.Logger
}

// NewExecutor creates an executor using the real clock.
func NewExecutor(logger *zap.Logger) *Executor {
	return NewExecutorWithClock(time.Now, logger)
}

// NewExecutorWithClock creates an executor with an explicit clock.
func NewExecutorWithClock(clock func() time.Time, logger *zap.Logger) *Executor {
	return &Executor{clock: clock, logger: logger.Named("engine")}
}

// cell is one typed value with its canonical string rendering. null cells
// (e.g. ship_date before shipment) fail every filter predicate.
type cell struct {
	kind schema.Kind
	str  string
	num  decimal.Decimal
	t    time.Time
	null bool
}

// row is one scoped table row, keyed by column name.
type row struct {
	id    string
	cells map[string]cell
}

// Execute runs the plan. The scope is applied structurally before any
// plan filter; a plan cannot widen what the caller may see.
func (e *Executor) Execute(ctx context.Context, plan *models.QueryPlan, accessScope models.AccessScope, snap *store.Snapshot) (*models.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := e.scopedRows(plan.Table, accessScope, snap)
	if err != nil {
		return nil, err
	}
	now := e.clock()

	filtered := rows[:0:0]
	for _, r := range rows {
		ok, err := e.matchesAll(r, plan.Filters, now)
		if err != nil {
			return nil, err
		}
		if ok {
			filtered = append(filtered, r)
		}
	}

	var result *models.Result
	if plan.Aggregated() {
		result, err = e.aggregate(plan, filtered)
	} else {
		result, err = e.project(plan, filtered)
	}
	if err != nil {
		return nil, err
	}

	if plan.Limit > 0 && len(result.Rows) > plan.Limit {
		result.Rows = result.Rows[:plan.Limit]
	}

	e.logger.Debug("plan executed",
		zap.String("table", plan.Table),
		zap.Int("rows", len(result.Rows)),
		zap.String("snapshot", snap.Version))
	return result, nil
}

// scopedRows materializes the table rows visible to the scope. Customer
// scope sees its own customer row, its own orders, revenue attached to
// its own orders, and the full product catalog.
func (e *Executor) scopedRows(table string, accessScope models.AccessScope, snap *store.Snapshot) ([]row, error) {
	var rows []row

	switch table {
	case schema.TableCustomers:
		for i := range snap.Tables.Customers {
			c := &snap.Tables.Customers[i]
			if !accessScope.Business() && !accessScope.AdmitsCustomer(c.ID) {
				continue
			}
			rows = append(rows, customerRow(c))
		}
	case schema.TableOrders:
		for i := range snap.Tables.Orders {
			o := &snap.Tables.Orders[i]
			if !accessScope.Business() && !accessScope.AdmitsCustomer(o.CustomerID) {
				continue
			}
			rows = append(rows, orderRow(o))
		}
	case schema.TableProducts:
		for i := range snap.Tables.Products {
			rows = append(rows, productRow(&snap.Tables.Products[i]))
		}
	case schema.TableRevenue:
		for i := range snap.Tables.Revenue {
			r := &snap.Tables.Revenue[i]
			if !accessScope.Business() {
				o, ok := snap.OrderByID[r.OrderID]
				if !ok || !accessScope.AdmitsCustomer(o.CustomerID) {
					continue
				}
			}
			rows = append(rows, revenueRow(r))
		}
	default:
		return nil, fmt.Errorf("unknown table %q: %w", table, apperrors.ErrUnsupportedPlan)
	}

	return rows, nil
}

func stringCell(v string) cell { return cell{kind: schema.KindString, str: v} }

func intCell(v int) cell {
	return cell{kind: schema.KindInt, str: strconv.Itoa(v), num: decimal.NewFromInt(int64(v))}
}

func moneyCell(v decimal.Decimal) cell {
	return cell{kind: schema.KindMoney, str: v.StringFixed(2), num: v}
}

func timeCell(v time.Time) cell {
	return cell{kind: schema.KindTime, str: v.Format(DateLayout), t: v}
}

func nullTimeCell(v *time.Time) cell {
	if v == nil {
		return cell{kind: schema.KindTime, null: true}
	}
	return timeCell(*v)
}

func customerRow(c *models.Customer) row {
	return row{id: c.ID, cells: map[string]cell{
		"id":     stringCell(c.ID),
		"name":   stringCell(c.Name),
		"email":  stringCell(c.Email),
		"region": stringCell(c.Region),
	}}
}

func orderRow(o *models.Order) row {
	return row{id: o.ID, cells: map[string]cell{
		"id":                 stringCell(o.ID),
		"customer_id":        stringCell(o.CustomerID),
		"product_id":         stringCell(o.ProductID),
		"status":             stringCell(string(o.Status)),
		"order_date":         timeCell(o.OrderDate),
		"ship_date":          nullTimeCell(o.ShipDate),
		"estimated_delivery": timeCell(o.EstimatedDelivery),
		"shipping_method":    stringCell(o.ShippingMethod),
	}}
}

func productRow(p *models.Product) row {
	return row{id: p.ID, cells: map[string]cell{
		"id":          stringCell(p.ID),
		"name":        stringCell(p.Name),
		"category":    stringCell(p.Category),
		"price":       moneyCell(p.Price),
		"stock_level": intCell(p.StockLevel),
	}}
}

func revenueRow(r *models.Revenue) row {
	return row{id: r.ID, cells: map[string]cell{
		"id":             stringCell(r.ID),
		"order_id":       stringCell(r.OrderID),
		"amount":         moneyCell(r.Amount),
		"date":           timeCell(r.Date),
		"payment_method": stringCell(r.PaymentMethod),
	}}
}

func (e *Executor) matchesAll(r row, filters []models.Filter, now time.Time) (bool, error) {
	for _, f := range filters {
		ok, err := e.matches(r, f, now)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (e *Executor) matches(r row, f models.Filter, now time.Time) (bool, error) {
	c, ok := r.cells[f.Column]
	if !ok {
		return false, fmt.Errorf("column %q: %w", f.Column, apperrors.ErrUnknownColumn)
	}
	if c.null {
		return false, nil
	}

	switch f.Op {
	case models.OpEq:
		return e.equals(c, f.Value, now)
	case models.OpNe:
		eq, err := e.equals(c, f.Value, now)
		return !eq, err
	case models.OpLt, models.OpLte, models.OpGt, models.OpGte:
		cmp, err := e.compare(c, f.Value, now)
		if err != nil {
			return false, err
		}
		switch f.Op {
		case models.OpLt:
			return cmp < 0, nil
		case models.OpLte:
			return cmp <= 0, nil
		case models.OpGt:
			return cmp > 0, nil
		default:
			return cmp >= 0, nil
		}
	case models.OpContains:
		return strings.Contains(strings.ToLower(c.str), strings.ToLower(f.Value)), nil
	case models.OpIn, models.OpNotIn:
		member := false
		for _, v := range f.Values() {
			eq, err := e.equals(c, v, now)
			if err != nil {
				return false, err
			}
			if eq {
				member = true
				break
			}
		}
		if f.Op == models.OpIn {
			return member, nil
		}
		return !member, nil
	}

	return false, fmt.Errorf("operator %q: %w", f.Op, apperrors.ErrUnsupportedPlan)
}

func (e *Executor) equals(c cell, value string, now time.Time) (bool, error) {
	switch c.kind {
	case schema.KindString:
		return strings.EqualFold(c.str, value), nil
	case schema.KindInt, schema.KindMoney:
		d, err := parseNumber(value)
		if err != nil {
			return false, err
		}
		return c.num.Equal(d), nil
	case schema.KindTime:
		t, err := parseTime(value, now)
		if err != nil {
			return false, err
		}
		// Date columns compare at day granularity.
		return c.t.Format(DateLayout) == t.Format(DateLayout), nil
	}
	return false, nil
}

func (e *Executor) compare(c cell, value string, now time.Time) (int, error) {
	switch c.kind {
	case schema.KindInt, schema.KindMoney:
		d, err := parseNumber(value)
		if err != nil {
			return 0, err
		}
		return c.num.Cmp(d), nil
	case schema.KindTime:
		t, err := parseTime(value, now)
		if err != nil {
			return 0, err
		}
		if c.t.Before(t) {
			return -1, nil
		}
		if c.t.After(t) {
			return 1, nil
		}
		return 0, nil
	case schema.KindString:
		return strings.Compare(c.str, value), nil
	}
	return 0, nil
}

func parseNumber(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("value %q is not numeric: %w", value, apperrors.ErrUnsupportedPlan)
	}
	return d, nil
}

func parseTime(value string, now time.Time) (time.Time, error) {
	if value == models.NowValue {
		return now, nil
	}
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("value %q is not a date: %w", value, apperrors.ErrUnsupportedPlan)
}

// project renders the selected columns of every row, sorted by the plan
// sort (or id) with an id tie-break so the order is total.
func (e *Executor) project(plan *models.QueryPlan, rows []row) (*models.Result, error) {
	cols := plan.Columns
	if len(cols) == 0 {
		cols = schema.ColumnNames(plan.Table)
	}

	sortCol := "id"
	descending := false
	if plan.Sort != nil {
		sortCol = plan.Sort.Column
		descending = plan.Sort.Descending
	}

	sort.SliceStable(rows, func(i, j int) bool {
		cmp := compareCells(rows[i].cells[sortCol], rows[j].cells[sortCol])
		if cmp == 0 {
			return rows[i].id < rows[j].id
		}
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})

	out := &models.Result{Columns: cols, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		rendered := make([]string, len(cols))
		for i, col := range cols {
			rendered[i] = r.cells[col].str
		}
		out.Rows = append(out.Rows, rendered)
	}
	return out, nil
}

// compareCells orders two cells of the same column. Null sorts last.
func compareCells(a, b cell) int {
	if a.null || b.null {
		switch {
		case a.null && b.null:
			return 0
		case a.null:
			return 1
		default:
			return -1
		}
	}
	switch a.kind {
	case schema.KindInt, schema.KindMoney:
		return a.num.Cmp(b.num)
	case schema.KindTime:
		if a.t.Before(b.t) {
			return -1
		}
		if a.t.After(b.t) {
			return 1
		}
		return 0
	}
	return strings.Compare(a.str, b.str)
}

type group struct {
	key      []string
	keyCells []cell
	count    int64
	sum      decimal.Decimal
	min      cell
	max      cell
	some     bool
}

// aggregate reduces rows to one output row per group (one total row when
// group_by is empty). Sums and averages accumulate decimals.
func (e *Executor) aggregate(plan *models.QueryPlan, rows []row) (*models.Result, error) {
	agg := plan.Aggregate
	groups := make(map[string]*group)
	var order []string

	for _, r := range rows {
		key := make([]string, len(plan.GroupBy))
		keyCells := make([]cell, len(plan.GroupBy))
		for i, col := range plan.GroupBy {
			keyCells[i] = r.cells[col]
			key[i] = keyCells[i].str
		}
		k := strings.Join(key, "\x00")

		g, ok := groups[k]
		if !ok {
			g = &group{key: key, keyCells: keyCells}
			groups[k] = g
			order = append(order, k)
		}

		c, has := r.cells[agg.Column]
		switch agg.Op {
		case models.AggCount:
			if agg.Column == "" || (has && !c.null) {
				g.count++
			}
		case models.AggSum, models.AggAvg:
			if has && !c.null {
				g.sum = g.sum.Add(c.num)
				g.count++
			}
		case models.AggMin, models.AggMax:
			if !has || c.null {
				continue
			}
			if !g.some {
				g.min, g.max, g.some = c, c, true
				continue
			}
			if compareCells(c, g.min) < 0 {
				g.min = c
			}
			if compareCells(c, g.max) > 0 {
				g.max = c
			}
		}
	}

	// An ungrouped aggregate over zero rows still yields one row, so
	// "total revenue" over an empty table reads 0.00 rather than nothing.
	if len(plan.GroupBy) == 0 && len(order) == 0 {
		groups[""] = &group{}
		order = append(order, "")
	}

	aggName := planner.AggregateColumnName(agg)
	cols := append(append([]string(nil), plan.GroupBy...), aggName)

	out := &models.Result{Columns: cols, Rows: make([][]string, 0, len(order))}
	aggCells := make(map[string]cell, len(order))
	for _, k := range order {
		g := groups[k]
		c := e.renderAggregate(plan.Table, agg, g)
		aggCells[k] = c
		out.Rows = append(out.Rows, append(append([]string(nil), g.key...), c.str))
	}

	e.sortAggregated(plan, out, aggName, aggCells, groups, order)
	return out, nil
}

func (e *Executor) renderAggregate(table string, agg *models.Aggregate, g *group) cell {
	switch agg.Op {
	case models.AggCount:
		return intCell(int(g.count))
	case models.AggSum:
		return e.numericCell(table, agg.Column, g.sum)
	case models.AggAvg:
		if g.count == 0 {
			return e.numericCell(table, agg.Column, decimal.Zero)
		}
		avg := g.sum.DivRound(decimal.NewFromInt(g.count), 4)
		return e.numericCell(table, agg.Column, avg)
	case models.AggMin:
		if !g.some {
			return cell{kind: schema.KindString, null: true}
		}
		return g.min
	case models.AggMax:
		if !g.some {
			return cell{kind: schema.KindString, null: true}
		}
		return g.max
	}
	return cell{}
}

// numericCell renders a computed number with the kind of its source
// column, so money keeps two decimal places and counts stay integral.
func (e *Executor) numericCell(table, column string, v decimal.Decimal) cell {
	col, _ := schema.Lookup(table, column)
	if col.Kind == schema.KindMoney {
		return moneyCell(v)
	}
	return cell{kind: schema.KindInt, str: v.String(), num: v}
}

func (e *Executor) sortAggregated(plan *models.QueryPlan, out *models.Result, aggName string, aggCells map[string]cell, groups map[string]*group, order []string) {
	sortCol := ""
	descending := false
	if plan.Sort != nil {
		sortCol = plan.Sort.Column
		descending = plan.Sort.Descending
	}

	colIdx := -1
	for i, c := range out.Columns {
		if c == sortCol {
			colIdx = i
			break
		}
	}

	type pair struct {
		key string
		row []string
	}
	pairs := make([]pair, len(order))
	for i, k := range order {
		pairs[i] = pair{key: k, row: out.Rows[i]}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		var cmp int
		switch {
		case sortCol == aggName:
			cmp = compareCells(aggCells[pairs[i].key], aggCells[pairs[j].key])
		case colIdx >= 0 && colIdx < len(plan.GroupBy):
			// Group keys compare as typed cells so numeric group
			// columns sort numerically, not lexically.
			cmp = compareCells(groups[pairs[i].key].keyCells[colIdx], groups[pairs[j].key].keyCells[colIdx])
		}
		if cmp == 0 {
			// Group key tie-break keeps the order total.
			return pairs[i].key < pairs[j].key
		}
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})

	for i, p := range pairs {
		out.Rows[i] = p.row
	}
}
