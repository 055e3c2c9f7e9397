package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPlaced    OrderStatus = "Placed"
	OrderShipped   OrderStatus = "Shipped"
	OrderDelivered OrderStatus = "Delivered"
	OrderDelayed   OrderStatus = "Delayed"
	OrderCancelled OrderStatus = "Cancelled"
)

// ParseOrderStatus normalizes a raw status string from the document store.
// Unrecognized values are preserved as-is so they can still be filtered on.
func ParseOrderStatus(raw string) OrderStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "placed":
		return OrderPlaced
	case "shipped":
		return OrderShipped
	case "delivered":
		return OrderDelivered
	case "delayed":
		return OrderDelayed
	case "cancelled", "canceled":
		return OrderCancelled
	}
	return OrderStatus(strings.TrimSpace(raw))
}

// Terminal reports whether the order can no longer be delivered late.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// Customer is a row of the customers collection. Immutable within a session.
type Customer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Region string `json:"region"`
}

// Order is a row of the orders collection. Read-only to the engine; the
// write path is an external collaborator.
type Order struct {
	ID                string      `json:"id"`
	CustomerID        string      `json:"customer_id"`
	ProductID         string      `json:"product_id"`
	Status            OrderStatus `json:"status"`
	OrderDate         time.Time   `json:"order_date"`
	ShipDate          *time.Time  `json:"ship_date,omitempty"`
	EstimatedDelivery time.Time   `json:"estimated_delivery"`
	ShippingMethod    string      `json:"shipping_method,omitempty"`
}

// ProcessingDays returns the ship-minus-order duration in whole days, or
// false when the order has not shipped.
func (o *Order) ProcessingDays() (int, bool) {
	if o.ShipDate == nil {
		return 0, false
	}
	return int(o.ShipDate.Sub(o.OrderDate).Hours() / 24), true
}

// Product is a row of the products collection. StockLevel is mutated
// externally as orders consume stock.
type Product struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Price      decimal.Decimal `json:"price"`
	StockLevel int             `json:"stock_level"`
}

// Revenue is a row of the revenue collection, one-to-one with orders.
type Revenue struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	PaymentMethod string          `json:"payment_method"`
}

// Tables holds the four collections loaded from the document store.
// Slices keep the store's order; id indexes are built by the snapshot layer.
type Tables struct {
	Customers []Customer
	Orders    []Order
	Products  []Product
	Revenue   []Revenue
}
