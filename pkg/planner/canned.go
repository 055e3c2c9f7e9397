package planner

import (
	"strings"

	"github.com/abilabs/insight-engine/pkg/models"
)

// cannedPlan matches a small set of common question shapes so the service
// degrades gracefully when the model service is down or keeps producing
// invalid plans. Matching is deliberately narrow; anything else fails
// closed instead of guessing.
func cannedPlan(question string, accessScope models.AccessScope) *models.QueryPlan {
	q := strings.ToLower(strings.TrimSpace(question))

	switch {
	case containsAll(q, "my", "orders"), containsAll(q, "my", "order"):
		if accessScope.Role != models.RoleCustomer {
			return nil
		}
		return &models.QueryPlan{
			Table: "orders",
			Sort:  &models.Sort{Column: "order_date", Descending: true},
		}

	case containsAll(q, "total", "revenue"):
		if !accessScope.Business() {
			return nil
		}
		return &models.QueryPlan{
			Table:     "revenue",
			Aggregate: &models.Aggregate{Op: models.AggSum, Column: "amount"},
		}

	case strings.Contains(q, "delayed") && strings.Contains(q, "order"),
		strings.Contains(q, "late") && strings.Contains(q, "order"):
		return &models.QueryPlan{
			Table: "orders",
			Filters: []models.Filter{
				{Column: "status", Op: models.OpNotIn, Value: "Delivered,Cancelled"},
				{Column: "estimated_delivery", Op: models.OpLt, Value: models.NowValue},
			},
			// Oldest promise date first, i.e. largest delay first.
			Sort: &models.Sort{Column: "estimated_delivery"},
		}
	}

	return nil
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
