// Package testhelpers provides the shared fixture dataset used across the
// engine's test suites. All dates are fixed relative to FixtureNow so
// tests never depend on the wall clock.
package testhelpers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/abilabs/insight-engine/pkg/models"
	"github.com/abilabs/insight-engine/pkg/store"
)

// FixtureNow is the frozen clock for fixture-based tests.
var FixtureNow = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

// Clock returns a clock frozen at FixtureNow.
func Clock() func() time.Time {
	return func() time.Time { return FixtureNow }
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func dayPtr(year int, month time.Month, d int) *time.Time {
	t := day(year, month, d)
	return &t
}

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Tables builds a fresh copy of the fixture dataset. Relative to
// FixtureNow: ord-002 is two days overdue, ord-004 is fourteen days
// overdue, ord-003 is due the next day, ord-006 is comfortably on track.
func Tables() *models.Tables {
	return &models.Tables{
		Customers: []models.Customer{
			{ID: "cust-001", Name: "Alice Moreau", Email: "alice@example.com", Region: "North"},
			{ID: "cust-002", Name: "Bheki Dlamini", Email: "bheki@example.com", Region: "South"},
			{ID: "cust-003", Name: "Carla Jensen", Email: "carla@example.com", Region: "North"},
		},
		Orders: []models.Order{
			{
				ID: "ord-001", CustomerID: "cust-001", ProductID: "prod-001",
				Status: models.OrderDelivered, OrderDate: day(2026, 7, 1),
				ShipDate: dayPtr(2026, 7, 2), EstimatedDelivery: day(2026, 7, 5),
				ShippingMethod: "standard",
			},
			{
				ID: "ord-002", CustomerID: "cust-001", ProductID: "prod-002",
				Status: models.OrderShipped, OrderDate: day(2026, 8, 10),
				ShipDate: dayPtr(2026, 8, 11), EstimatedDelivery: day(2026, 8, 13),
				ShippingMethod: "express",
			},
			{
				ID: "ord-003", CustomerID: "cust-002", ProductID: "prod-001",
				Status: models.OrderPlaced, OrderDate: day(2026, 8, 12),
				EstimatedDelivery: day(2026, 8, 16), ShippingMethod: "standard",
			},
			{
				ID: "ord-004", CustomerID: "cust-002", ProductID: "prod-003",
				Status: models.OrderDelayed, OrderDate: day(2026, 7, 20),
				EstimatedDelivery: day(2026, 8, 1), ShippingMethod: "freight",
			},
			{
				ID: "ord-005", CustomerID: "cust-003", ProductID: "prod-002",
				Status: models.OrderCancelled, OrderDate: day(2026, 8, 1),
				EstimatedDelivery: day(2026, 8, 8), ShippingMethod: "standard",
			},
			{
				ID: "ord-006", CustomerID: "cust-001", ProductID: "prod-001",
				Status: models.OrderPlaced, OrderDate: day(2026, 8, 14),
				EstimatedDelivery: day(2026, 8, 25), ShippingMethod: "standard",
			},
		},
		Products: []models.Product{
			{ID: "prod-001", Name: "Widget", Category: "Gadgets", Price: money("19.99"), StockLevel: 50},
			{ID: "prod-002", Name: "Gizmo", Category: "Gadgets", Price: money("5.50"), StockLevel: 500},
			{ID: "prod-003", Name: "Doohickey", Category: "Tools", Price: money("100.00"), StockLevel: 0},
		},
		Revenue: []models.Revenue{
			{ID: "rev-001", OrderID: "ord-001", Amount: money("19.99"), Date: day(2026, 7, 1), PaymentMethod: "card"},
			{ID: "rev-002", OrderID: "ord-002", Amount: money("5.50"), Date: day(2026, 8, 10), PaymentMethod: "card"},
			{ID: "rev-003", OrderID: "ord-003", Amount: money("19.99"), Date: day(2026, 8, 12), PaymentMethod: "paypal"},
			{ID: "rev-004", OrderID: "ord-004", Amount: money("100.00"), Date: day(2026, 7, 20), PaymentMethod: "invoice"},
			{ID: "rev-006", OrderID: "ord-006", Amount: money("19.99"), Date: day(2026, 8, 14), PaymentMethod: "card"},
		},
	}
}

// Snapshot indexes the fixture dataset as of FixtureNow.
func Snapshot() *store.Snapshot {
	return store.NewSnapshot(Tables(), FixtureNow)
}
