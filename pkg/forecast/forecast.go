// Package forecast derives stock-out projections, order delay reports and
// revenue anomaly scans from a table snapshot. Everything here is
// recomputed on demand and deterministic per snapshot; the isolation
// forest RNG is seeded from the snapshot version.
package forecast

import (
	"context"
	"hash/fnv"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/config"
	"github.com/abilabs/insight-engine/pkg/models"
	"github.com/abilabs/insight-engine/pkg/store"
)

// Forecaster computes stock-out projections over snapshots.
type Forecaster struct {
	cfg    *config.ForecastConfig
	cache  *store.ForecastCache
	clock  func() time.Time
	logger *zap.Logger
}

// NewForecaster creates a forecaster. cache may be nil.
func NewForecaster(cfg *config.ForecastConfig, cache *store.ForecastCache, logger *zap.Logger) *Forecaster {
	return NewForecasterWithClock(cfg, cache, time.Now, logger)
}

// NewForecasterWithClock creates a forecaster with an explicit clock.
func NewForecasterWithClock(cfg *config.ForecastConfig, cache *store.ForecastCache, clock func() time.Time, logger *zap.Logger) *Forecaster {
	return &Forecaster{
		cfg:    cfg,
		cache:  cache,
		clock:  clock,
		logger: logger.Named("forecast"),
	}
}

// Forecast returns one record per product, worst risk first. Results for
// a snapshot version are served from the cache when available.
func (f *Forecaster) Forecast(ctx context.Context, snap *store.Snapshot) ([]models.ForecastRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cached := f.cache.Get(ctx, snap.Version); cached != nil {
		f.logger.Debug("forecast cache hit", zap.String("snapshot", snap.Version))
		return cached, nil
	}

	now := f.clock()
	rng := rand.New(rand.NewSource(seedFromVersion(snap.Version)))

	products := make([]*models.Product, 0, len(snap.Tables.Products))
	for i := range snap.Tables.Products {
		products = append(products, &snap.Tables.Products[i])
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })

	records := make([]models.ForecastRecord, 0, len(products))
	for _, p := range products {
		records = append(records, f.forecastProduct(p, snap, now, rng))
	}

	sortRecords(records)
	f.cache.Put(ctx, snap.Version, records)
	return records, nil
}

// seedFromVersion hashes the snapshot version into an RNG seed.
func seedFromVersion(version string) int64 {
	h := fnv.New64a()
	h.Write([]byte(version))
	return int64(h.Sum64())
}

func (f *Forecaster) forecastProduct(p *models.Product, snap *store.Snapshot, now time.Time, rng *rand.Rand) models.ForecastRecord {
	rec := models.ForecastRecord{
		ProductID:   p.ID,
		ProductName: p.Name,
		StockLevel:  p.StockLevel,
		Risk:        models.RiskLow,
	}

	series := f.consumptionSeries(p.ID, snap, now)
	burnRate, anomalous := f.burnRate(series, rng)
	rec.BurnRate = burnRate
	rec.AnomalyFlag = anomalous

	// No consumption means no projection; the product cannot run out on
	// current behavior.
	if burnRate <= 0 {
		return rec
	}

	days := float64(p.StockLevel) / burnRate
	if days > float64(f.cfg.HorizonDays) {
		// Beyond the horizon the estimate is noise; report the band only.
		return rec
	}

	rec.DaysToStockout = &days
	rec.Risk = f.band(days)
	return rec
}

// consumptionSeries counts orders per day for a product over the
// configured window, oldest day first. Days without orders count as zero.
func (f *Forecaster) consumptionSeries(productID string, snap *store.Snapshot, now time.Time) []float64 {
	series := make([]float64, f.cfg.WindowDays)
	windowStart := now.AddDate(0, 0, -f.cfg.WindowDays)

	for _, o := range snap.OrdersByProduct[productID] {
		if o.Status == models.OrderCancelled {
			continue
		}
		if o.OrderDate.Before(windowStart) || !o.OrderDate.Before(now) {
			continue
		}
		day := int(o.OrderDate.Sub(windowStart).Hours() / 24)
		if day >= 0 && day < len(series) {
			series[day]++
		}
	}
	return series
}

// burnRate averages the daily consumption after excluding days the
// isolation forest flags as anomalous, so one promotion spike does not
// triple the projected depletion. Returns the rate and whether any day
// was anomalous.
func (f *Forecaster) burnRate(series []float64, rng *rand.Rand) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}

	forest := newIsolationForest(series, f.cfg.Trees, f.cfg.Subsample, rng)

	var sum float64
	var kept int
	anomalous := false
	for _, v := range series {
		if forest.Score(v) >= f.cfg.ScoreThreshold {
			anomalous = true
			continue
		}
		sum += v
		kept++
	}

	// All days anomalous degenerates to the plain mean; an empty basis
	// would be worse than a noisy one.
	if kept == 0 {
		for _, v := range series {
			sum += v
		}
		kept = len(series)
	}

	return sum / float64(kept), anomalous
}

// band maps a finite days-to-stockout onto exactly one risk band.
func (f *Forecaster) band(days float64) models.RiskLevel {
	switch {
	case days < float64(f.cfg.CriticalDays):
		return models.RiskCritical
	case days < float64(f.cfg.HighDays):
		return models.RiskHigh
	case days < float64(f.cfg.ModerateDays):
		return models.RiskModerate
	}
	return models.RiskLow
}

// sortRecords orders records worst first: severity descending, then
// days-to-stockout ascending (records without an estimate last), then
// product id.
func sortRecords(records []models.ForecastRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Risk.Severity() != b.Risk.Severity() {
			return a.Risk.Severity() > b.Risk.Severity()
		}
		switch {
		case a.DaysToStockout != nil && b.DaysToStockout != nil:
			if *a.DaysToStockout != *b.DaysToStockout {
				return *a.DaysToStockout < *b.DaysToStockout
			}
		case a.DaysToStockout != nil:
			return true
		case b.DaysToStockout != nil:
			return false
		}
		return a.ProductID < b.ProductID
	})
}
