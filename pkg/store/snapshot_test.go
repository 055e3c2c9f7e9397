package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/apperrors"
	"github.com/abilabs/insight-engine/pkg/models"
)

func fixtureTables() *models.Tables {
	price := decimal.RequireFromString("19.99")
	return &models.Tables{
		Customers: []models.Customer{{ID: "cust-001", Name: "Alice", Email: "a@example.com", Region: "North"}},
		Orders: []models.Order{{
			ID: "ord-001", CustomerID: "cust-001", ProductID: "prod-001",
			Status:    models.OrderPlaced,
			OrderDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			EstimatedDelivery: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		}},
		Products: []models.Product{{ID: "prod-001", Name: "Widget", Category: "Gadgets", Price: price, StockLevel: 50}},
		Revenue: []models.Revenue{{
			ID: "rev-001", OrderID: "ord-001", Amount: price,
			Date: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), PaymentMethod: "card",
		}},
	}
}

func TestNewSnapshot_Indexes(t *testing.T) {
	snap := NewSnapshot(fixtureTables(), time.Now())

	require.Contains(t, snap.CustomerByID, "cust-001")
	require.Contains(t, snap.OrderByID, "ord-001")
	require.Contains(t, snap.ProductByID, "prod-001")
	require.Contains(t, snap.RevenueByOrder, "ord-001")
	assert.Len(t, snap.OrdersByProduct["prod-001"], 1)
}

func TestSnapshotVersion_Deterministic(t *testing.T) {
	a := NewSnapshot(fixtureTables(), time.Now())
	b := NewSnapshot(fixtureTables(), time.Now().Add(time.Hour))
	assert.Equal(t, a.Version, b.Version, "equal data must hash to equal versions")
}

func TestSnapshotVersion_TracksMutableFields(t *testing.T) {
	base := NewSnapshot(fixtureTables(), time.Now())

	changed := fixtureTables()
	changed.Products[0].StockLevel = 49
	assert.NotEqual(t, base.Version, NewSnapshot(changed, time.Now()).Version)

	changed = fixtureTables()
	changed.Orders[0].Status = models.OrderShipped
	assert.NotEqual(t, base.Version, NewSnapshot(changed, time.Now()).Version)
}

func TestSnapshotCache_ServesCachedSnapshot(t *testing.T) {
	mem := NewMemoryStore(fixtureTables())
	cache := NewSnapshotCache(mem, time.Minute, zap.NewNop())

	first, err := cache.Get(context.Background())
	require.NoError(t, err)
	second, err := cache.Get(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second, "within the TTL both reads share one snapshot")
	assert.Equal(t, 1, mem.LoadCalls)
}

func TestSnapshotCache_InvalidateForcesReload(t *testing.T) {
	mem := NewMemoryStore(fixtureTables())
	cache := NewSnapshotCache(mem, time.Minute, zap.NewNop())

	_, err := cache.Get(context.Background())
	require.NoError(t, err)

	cache.Invalidate()
	_, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, mem.LoadCalls)
}

func TestSnapshotCache_ServesStaleOnRefreshFailure(t *testing.T) {
	mem := NewMemoryStore(fixtureTables())
	cache := NewSnapshotCache(mem, 0, zap.NewNop()) // zero TTL forces refresh on every Get

	first, err := cache.Get(context.Background())
	require.NoError(t, err)

	mem.Err = errors.New("store offline")
	stale, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Version, stale.Version)
}

func TestSnapshotCache_FailsWithoutAnySnapshot(t *testing.T) {
	mem := NewMemoryStore(nil)
	cache := NewSnapshotCache(mem, time.Minute, zap.NewNop())

	_, err := cache.Get(context.Background())
	require.ErrorIs(t, err, apperrors.ErrDataUnavailable)
}

func TestMemoryStore_CopiesOnLoad(t *testing.T) {
	mem := NewMemoryStore(fixtureTables())
	tables, err := mem.LoadTables(context.Background())
	require.NoError(t, err)

	tables.Products[0].StockLevel = 0
	reloaded, err := mem.LoadTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, reloaded.Products[0].StockLevel)
}
