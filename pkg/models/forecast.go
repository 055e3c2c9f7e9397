package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskLevel is the discrete stock-out severity band.
type RiskLevel string

const (
	RiskCritical RiskLevel = "Critical"
	RiskHigh     RiskLevel = "High"
	RiskModerate RiskLevel = "Moderate"
	RiskLow      RiskLevel = "Low"
)

// Severity orders risk levels for sorting; higher is worse.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskCritical:
		return 3
	case RiskHigh:
		return 2
	case RiskModerate:
		return 1
	}
	return 0
}

// ForecastRecord is the derived stock-out projection for one product.
// Recomputed on demand from a table snapshot; never persisted.
type ForecastRecord struct {
	ProductID      string    `json:"product_id"`
	ProductName    string    `json:"product_name"`
	StockLevel     int       `json:"stock_level"`
	BurnRate       float64   `json:"burn_rate"` // units/day over the non-anomalous window
	DaysToStockout *float64  `json:"days_to_stockout,omitempty"`
	Risk           RiskLevel `json:"risk"`
	AnomalyFlag    bool      `json:"anomaly_flag"`
}

// OrderDelay describes one pending order relative to its estimated
// delivery date.
type OrderDelay struct {
	OrderID           string      `json:"order_id"`
	CustomerID        string      `json:"customer_id"`
	Status            OrderStatus `json:"status"`
	EstimatedDelivery time.Time   `json:"estimated_delivery"`
	ShippingMethod    string      `json:"shipping_method,omitempty"`
	DaysOverdue       int         `json:"days_overdue"` // negative means days remaining
}

// DelayReport categorizes pending orders into overdue, at-risk (due within
// two days) and on-track.
type DelayReport struct {
	AnalysisDate time.Time    `json:"analysis_date"`
	PendingCount int          `json:"pending_count"`
	OverdueCount int          `json:"overdue_count"`
	AtRiskCount  int          `json:"at_risk_count"`
	OnTrackCount int          `json:"on_track_count"`
	Overdue      []OrderDelay `json:"overdue,omitempty"` // sorted by delay magnitude descending
	AtRisk       []OrderDelay `json:"at_risk,omitempty"`
}

// RevenueTrend labels the direction of recent revenue.
type RevenueTrend string

const (
	TrendIncreasing   RevenueTrend = "increasing"
	TrendDecreasing   RevenueTrend = "decreasing"
	TrendStable       RevenueTrend = "stable"
	TrendInsufficient RevenueTrend = "insufficient_data"
)

// RevenueAnomaly is one transaction flagged by the z-score scan.
type RevenueAnomaly struct {
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	ZScore    float64         `json:"z_score"`
	Direction string          `json:"direction"` // "high" or "low"
}

// RevenueAnomalyReport summarizes the recent-window revenue scan.
type RevenueAnomalyReport struct {
	WindowDays    int              `json:"window_days"`
	RecentTotal   decimal.Decimal  `json:"recent_total"`
	RecentMean    decimal.Decimal  `json:"recent_mean"`
	BaselineMean  decimal.Decimal  `json:"baseline_mean"`
	Trend         RevenueTrend     `json:"trend"`
	Anomalies     []RevenueAnomaly `json:"anomalies,omitempty"`
	TotalExamined int              `json:"total_examined"`
}

// OrderStatusInfo is the per-order lookup result for the customer surface.
type OrderStatusInfo struct {
	OrderID           string      `json:"order_id"`
	Status            OrderStatus `json:"status"`
	OrderDate         time.Time   `json:"order_date"`
	ShipDate          *time.Time  `json:"ship_date,omitempty"`
	EstimatedDelivery time.Time   `json:"estimated_delivery"`
	ShippingMethod    string      `json:"shipping_method,omitempty"`
	ProcessingDays    *int        `json:"processing_days,omitempty"`
	DaysUntilDelivery int         `json:"days_until_delivery"`
	Overdue           bool        `json:"overdue"`
	DelayStatus       string      `json:"delay_status"` // e.g. "overdue by 3 days"
}
