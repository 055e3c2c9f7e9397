package forecast

import (
	"context"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/abilabs/insight-engine/pkg/models"
	"github.com/abilabs/insight-engine/pkg/store"
)

// minRevenueSamples is the smallest recent window worth scoring; below it
// the scan reports insufficient data instead of guessing.
const minRevenueSamples = 3

// RevenueScan z-scores each transaction of the recent window against the
// window's own distribution and labels the trend against the baseline of
// everything older. Totals and means stay decimal; floats appear only in
// the z-scores.
func (f *Forecaster) RevenueScan(ctx context.Context, snap *store.Snapshot) (*models.RevenueAnomalyReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := f.clock()
	windowStart := now.AddDate(0, 0, -f.cfg.RevenueWindowDays)

	report := &models.RevenueAnomalyReport{
		WindowDays:   f.cfg.RevenueWindowDays,
		Trend:        models.TrendInsufficient,
		RecentTotal:  decimal.Zero,
		RecentMean:   decimal.Zero,
		BaselineMean: decimal.Zero,
	}

	var recent []*models.Revenue
	baselineTotal := decimal.Zero
	baselineCount := 0

	for i := range snap.Tables.Revenue {
		r := &snap.Tables.Revenue[i]
		if r.Date.After(now) {
			continue
		}
		report.TotalExamined++
		if r.Date.Before(windowStart) {
			baselineTotal = baselineTotal.Add(r.Amount)
			baselineCount++
			continue
		}
		recent = append(recent, r)
		report.RecentTotal = report.RecentTotal.Add(r.Amount)
	}

	if len(recent) > 0 {
		report.RecentMean = report.RecentTotal.DivRound(decimal.NewFromInt(int64(len(recent))), 2)
	}
	if baselineCount > 0 {
		report.BaselineMean = baselineTotal.DivRound(decimal.NewFromInt(int64(baselineCount)), 2)
	}

	if len(recent) < minRevenueSamples {
		return report, nil
	}

	report.Trend = trendLabel(report.RecentMean, report.BaselineMean, baselineCount)
	report.Anomalies = f.scoreAnomalies(recent)
	return report, nil
}

// trendLabel compares the recent mean to the baseline mean with a 10%
// dead band.
func trendLabel(recentMean, baselineMean decimal.Decimal, baselineCount int) models.RevenueTrend {
	if baselineCount == 0 || baselineMean.IsZero() {
		return models.TrendInsufficient
	}
	ratio, _ := recentMean.Div(baselineMean).Float64()
	switch {
	case ratio > 1.1:
		return models.TrendIncreasing
	case ratio < 0.9:
		return models.TrendDecreasing
	}
	return models.TrendStable
}

// scoreAnomalies flags transactions whose z-score against the recent
// window exceeds the configured threshold, largest deviation first.
func (f *Forecaster) scoreAnomalies(recent []*models.Revenue) []models.RevenueAnomaly {
	amounts := make([]float64, len(recent))
	var sum float64
	for i, r := range recent {
		amounts[i], _ = r.Amount.Float64()
		sum += amounts[i]
	}
	mean := sum / float64(len(amounts))

	var variance float64
	for _, a := range amounts {
		variance += (a - mean) * (a - mean)
	}
	stddev := math.Sqrt(variance / float64(len(amounts)))
	if stddev == 0 {
		return nil
	}

	var anomalies []models.RevenueAnomaly
	for i, r := range recent {
		z := (amounts[i] - mean) / stddev
		if math.Abs(z) < f.cfg.RevenueZThreshold {
			continue
		}
		direction := "high"
		if z < 0 {
			direction = "low"
		}
		anomalies = append(anomalies, models.RevenueAnomaly{
			Date:      r.Date,
			Amount:    r.Amount,
			ZScore:    z,
			Direction: direction,
		})
	}

	sort.SliceStable(anomalies, func(i, j int) bool {
		ai, aj := math.Abs(anomalies[i].ZScore), math.Abs(anomalies[j].ZScore)
		if ai != aj {
			return ai > aj
		}
		return anomalies[i].Date.Before(anomalies[j].Date)
	})
	return anomalies
}
