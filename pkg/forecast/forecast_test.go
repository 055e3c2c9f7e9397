package forecast

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/config"
	"github.com/abilabs/insight-engine/pkg/models"
	"github.com/abilabs/insight-engine/pkg/store"
	"github.com/abilabs/insight-engine/pkg/testhelpers"
)

func testForecastConfig() *config.ForecastConfig {
	return &config.ForecastConfig{
		CriticalDays:      7,
		HighDays:          14,
		ModerateDays:      30,
		HorizonDays:       30,
		WindowDays:        30,
		Trees:             100,
		Subsample:         64,
		ScoreThreshold:    0.62,
		AtRiskDays:        2,
		RevenueWindowDays: 7,
		RevenueZThreshold: 2.0,
	}
}

func newTestForecaster(cfg *config.ForecastConfig) *Forecaster {
	return NewForecasterWithClock(cfg, nil, testhelpers.Clock(), zap.NewNop())
}

// steadyDemandTables builds one product with a constant number of orders
// per day over the whole window.
func steadyDemandTables(stock, perDay int) *models.Tables {
	tables := &models.Tables{
		Products: []models.Product{
			{ID: "prod-001", Name: "Widget", Category: "Gadgets", Price: decimal.New(1999, -2), StockLevel: stock},
		},
	}
	start := testhelpers.FixtureNow.AddDate(0, 0, -30)
	seq := 0
	for d := 0; d < 30; d++ {
		day := start.AddDate(0, 0, d)
		for i := 0; i < perDay; i++ {
			seq++
			tables.Orders = append(tables.Orders, models.Order{
				ID:                fmt.Sprintf("ord-%04d", seq),
				CustomerID:        "cust-001",
				ProductID:         "prod-001",
				Status:            models.OrderPlaced,
				OrderDate:         day,
				EstimatedDelivery: day.AddDate(0, 0, 5),
			})
		}
	}
	return tables
}

func TestForecast_SteadyBurnRate(t *testing.T) {
	// 50 units of stock at 10 orders per day runs out in 5 days.
	snap := store.NewSnapshot(steadyDemandTables(50, 10), testhelpers.FixtureNow)

	records, err := newTestForecaster(testForecastConfig()).Forecast(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.InDelta(t, 10.0, rec.BurnRate, 0.01)
	require.NotNil(t, rec.DaysToStockout)
	assert.InDelta(t, 5.0, *rec.DaysToStockout, 0.1)
	assert.Equal(t, models.RiskCritical, rec.Risk)
	assert.False(t, rec.AnomalyFlag)
}

func TestForecast_RiskBands(t *testing.T) {
	tests := []struct {
		stock int
		want  models.RiskLevel
	}{
		{stock: 2 * 6, want: models.RiskCritical},  // ~6 days
		{stock: 2 * 10, want: models.RiskHigh},     // ~10 days
		{stock: 2 * 20, want: models.RiskModerate}, // ~20 days
	}
	for _, tt := range tests {
		snap := store.NewSnapshot(steadyDemandTables(tt.stock, 2), testhelpers.FixtureNow)
		records, err := newTestForecaster(testForecastConfig()).Forecast(context.Background(), snap)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, tt.want, records[0].Risk, "stock %d", tt.stock)
	}
}

func TestForecast_NoConsumptionMeansLowRiskNoEstimate(t *testing.T) {
	tables := &models.Tables{
		Products: []models.Product{
			{ID: "prod-001", Name: "Widget", Category: "Gadgets", Price: decimal.New(1999, -2), StockLevel: 5},
		},
	}
	snap := store.NewSnapshot(tables, testhelpers.FixtureNow)

	records, err := newTestForecaster(testForecastConfig()).Forecast(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.RiskLow, records[0].Risk)
	assert.Nil(t, records[0].DaysToStockout)
	assert.Zero(t, records[0].BurnRate)
}

func TestForecast_BeyondHorizonReportsNoEstimate(t *testing.T) {
	// 2 per day against 500 units is far beyond the 30 day horizon.
	snap := store.NewSnapshot(steadyDemandTables(500, 2), testhelpers.FixtureNow)

	records, err := newTestForecaster(testForecastConfig()).Forecast(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.RiskLow, records[0].Risk)
	assert.Nil(t, records[0].DaysToStockout)
	assert.Greater(t, records[0].BurnRate, 0.0)
}

func TestForecast_SpikeExcludedFromBurnRate(t *testing.T) {
	// Steady demand of 2 per day with one 40-order promotion day. The
	// spike day must not triple the burn rate.
	tables := steadyDemandTables(100, 2)
	spikeDay := testhelpers.FixtureNow.AddDate(0, 0, -10)
	for i := 0; i < 38; i++ {
		tables.Orders = append(tables.Orders, models.Order{
			ID:                fmt.Sprintf("ord-spike-%02d", i),
			CustomerID:        "cust-001",
			ProductID:         "prod-001",
			Status:            models.OrderPlaced,
			OrderDate:         spikeDay,
			EstimatedDelivery: spikeDay.AddDate(0, 0, 5),
		})
	}
	snap := store.NewSnapshot(tables, testhelpers.FixtureNow)

	records, err := newTestForecaster(testForecastConfig()).Forecast(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.True(t, rec.AnomalyFlag)
	assert.InDelta(t, 2.0, rec.BurnRate, 0.5)
}

func TestForecast_CancelledOrdersDoNotConsume(t *testing.T) {
	tables := steadyDemandTables(50, 1)
	for i := range tables.Orders {
		tables.Orders[i].Status = models.OrderCancelled
	}
	snap := store.NewSnapshot(tables, testhelpers.FixtureNow)

	records, err := newTestForecaster(testForecastConfig()).Forecast(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Zero(t, records[0].BurnRate)
	assert.Equal(t, models.RiskLow, records[0].Risk)
}

func TestForecast_DeterministicPerSnapshot(t *testing.T) {
	snap := store.NewSnapshot(steadyDemandTables(50, 3), testhelpers.FixtureNow)
	f := newTestForecaster(testForecastConfig())

	first, err := f.Forecast(context.Background(), snap)
	require.NoError(t, err)
	second, err := f.Forecast(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestForecast_SortedWorstFirst(t *testing.T) {
	tables := steadyDemandTables(12, 2) // ~6 days, Critical
	tables.Products = append(tables.Products,
		models.Product{ID: "prod-002", Name: "Gizmo", Category: "Gadgets", Price: decimal.New(550, -2), StockLevel: 40},
		models.Product{ID: "prod-003", Name: "Doohickey", Category: "Tools", Price: decimal.New(10000, -2), StockLevel: 1000},
	)
	// prod-002: 2 per day against 40 units, ~20 days, Moderate.
	start := testhelpers.FixtureNow.AddDate(0, 0, -30)
	for d := 0; d < 30; d++ {
		day := start.AddDate(0, 0, d)
		for i := 0; i < 2; i++ {
			tables.Orders = append(tables.Orders, models.Order{
				ID:                fmt.Sprintf("ord-g-%02d-%d", d, i),
				CustomerID:        "cust-001",
				ProductID:         "prod-002",
				Status:            models.OrderPlaced,
				OrderDate:         day,
				EstimatedDelivery: day.AddDate(0, 0, 5),
			})
		}
	}
	snap := store.NewSnapshot(tables, testhelpers.FixtureNow)

	records, err := newTestForecaster(testForecastConfig()).Forecast(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "prod-001", records[0].ProductID)
	assert.Equal(t, models.RiskCritical, records[0].Risk)
	assert.Equal(t, "prod-002", records[1].ProductID)
	assert.Equal(t, "prod-003", records[2].ProductID)
	assert.Equal(t, models.RiskLow, records[2].Risk)
}

func TestBand_EveryFiniteValueMapsToExactlyOneBand(t *testing.T) {
	f := newTestForecaster(testForecastConfig())
	assert.Equal(t, models.RiskCritical, f.band(0))
	assert.Equal(t, models.RiskCritical, f.band(6.99))
	assert.Equal(t, models.RiskHigh, f.band(7))
	assert.Equal(t, models.RiskHigh, f.band(13.99))
	assert.Equal(t, models.RiskModerate, f.band(14))
	assert.Equal(t, models.RiskModerate, f.band(29.99))
	assert.Equal(t, models.RiskLow, f.band(30))
}

func TestIsolationForest_FlagsObviousOutlier(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 2
	}
	values[30] = 50

	forest := newIsolationForest(values, 100, 64, rand.New(rand.NewSource(1)))
	assert.Greater(t, forest.Score(50), forest.Score(2))
	assert.GreaterOrEqual(t, forest.Score(50), 0.62)
}

func TestIsolationForest_UniformSeriesHasNoOutliers(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 3
	}

	forest := newIsolationForest(values, 100, 64, rand.New(rand.NewSource(1)))
	assert.Less(t, forest.Score(3), 0.62)
}

func TestAvgPathLength(t *testing.T) {
	assert.Zero(t, avgPathLength(1))
	assert.Equal(t, 1.0, avgPathLength(2))
	assert.Greater(t, avgPathLength(100), avgPathLength(10))
}

func TestForecast_UsesCache(t *testing.T) {
	// A nil cache is a no-op; this exercises the nil-safe path.
	snap := store.NewSnapshot(steadyDemandTables(50, 1), testhelpers.FixtureNow)
	f := newTestForecaster(testForecastConfig())
	_, err := f.Forecast(context.Background(), snap)
	require.NoError(t, err)
}

func TestConsumptionSeries_WindowBounds(t *testing.T) {
	f := newTestForecaster(testForecastConfig())
	tables := &models.Tables{
		Products: []models.Product{{ID: "prod-001", Name: "Widget", StockLevel: 10}},
		Orders: []models.Order{
			// Outside the window: exactly 31 days old.
			{ID: "ord-old", ProductID: "prod-001", Status: models.OrderPlaced,
				OrderDate: testhelpers.FixtureNow.AddDate(0, 0, -31)},
			// Inside the window.
			{ID: "ord-new", ProductID: "prod-001", Status: models.OrderPlaced,
				OrderDate: testhelpers.FixtureNow.AddDate(0, 0, -1)},
			// In the future relative to the clock.
			{ID: "ord-future", ProductID: "prod-001", Status: models.OrderPlaced,
				OrderDate: testhelpers.FixtureNow.AddDate(0, 0, 1)},
		},
	}
	snap := store.NewSnapshot(tables, testhelpers.FixtureNow)

	series := f.consumptionSeries("prod-001", snap, testhelpers.FixtureNow)
	var total float64
	for _, v := range series {
		total += v
	}
	assert.Equal(t, 1.0, total)
}
