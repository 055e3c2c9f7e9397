package forecast

import (
	"context"
	"sort"
	"time"

	"github.com/abilabs/insight-engine/pkg/models"
	"github.com/abilabs/insight-engine/pkg/store"
)

// DelayScan categorizes every pending order as overdue, at risk (due
// within the configured grace window) or on track. Delivered and
// cancelled orders are not pending.
func (f *Forecaster) DelayScan(ctx context.Context, snap *store.Snapshot) (*models.DelayReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := f.clock()
	report := &models.DelayReport{AnalysisDate: now}

	for i := range snap.Tables.Orders {
		o := &snap.Tables.Orders[i]
		if o.Status.Terminal() {
			continue
		}
		report.PendingCount++

		overdueDays := daysBetween(o.EstimatedDelivery, now)
		delay := models.OrderDelay{
			OrderID:           o.ID,
			CustomerID:        o.CustomerID,
			Status:            o.Status,
			EstimatedDelivery: o.EstimatedDelivery,
			ShippingMethod:    o.ShippingMethod,
			DaysOverdue:       overdueDays,
		}

		switch {
		case overdueDays > 0:
			report.OverdueCount++
			report.Overdue = append(report.Overdue, delay)
		case -overdueDays <= f.cfg.AtRiskDays:
			report.AtRiskCount++
			report.AtRisk = append(report.AtRisk, delay)
		default:
			report.OnTrackCount++
		}
	}

	sort.SliceStable(report.Overdue, func(i, j int) bool {
		a, b := report.Overdue[i], report.Overdue[j]
		if a.DaysOverdue != b.DaysOverdue {
			return a.DaysOverdue > b.DaysOverdue
		}
		return a.OrderID < b.OrderID
	})
	sort.SliceStable(report.AtRisk, func(i, j int) bool {
		a, b := report.AtRisk[i], report.AtRisk[j]
		if !a.EstimatedDelivery.Equal(b.EstimatedDelivery) {
			return a.EstimatedDelivery.Before(b.EstimatedDelivery)
		}
		return a.OrderID < b.OrderID
	})

	return report, nil
}

// daysBetween counts whole calendar days from a to b; negative when a is
// in the future.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
