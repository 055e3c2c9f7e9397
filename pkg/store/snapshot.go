package store

import (
	"context"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/models"
	"github.com/abilabs/insight-engine/pkg/retry"
)

// Snapshot is an immutable view of the four collections plus id indexes
// for O(1) foreign-key lookups. Concurrent readers share one snapshot;
// nothing mutates it after construction.
type Snapshot struct {
	Version  string
	LoadedAt time.Time
	Tables   *models.Tables

	CustomerByID    map[string]*models.Customer
	OrderByID       map[string]*models.Order
	ProductByID     map[string]*models.Product
	RevenueByOrder  map[string]*models.Revenue
	OrdersByProduct map[string][]*models.Order
}

// NewSnapshot indexes the loaded tables and computes the content version.
func NewSnapshot(tables *models.Tables, loadedAt time.Time) *Snapshot {
	s := &Snapshot{
		Version:         versionOf(tables),
		LoadedAt:        loadedAt,
		Tables:          tables,
		CustomerByID:    make(map[string]*models.Customer, len(tables.Customers)),
		OrderByID:       make(map[string]*models.Order, len(tables.Orders)),
		ProductByID:     make(map[string]*models.Product, len(tables.Products)),
		RevenueByOrder:  make(map[string]*models.Revenue, len(tables.Revenue)),
		OrdersByProduct: make(map[string][]*models.Order),
	}

	for i := range tables.Customers {
		c := &tables.Customers[i]
		s.CustomerByID[c.ID] = c
	}
	for i := range tables.Orders {
		o := &tables.Orders[i]
		s.OrderByID[o.ID] = o
		s.OrdersByProduct[o.ProductID] = append(s.OrdersByProduct[o.ProductID], o)
	}
	for i := range tables.Products {
		p := &tables.Products[i]
		s.ProductByID[p.ID] = p
	}
	for i := range tables.Revenue {
		r := &tables.Revenue[i]
		s.RevenueByOrder[r.OrderID] = r
	}

	return s
}

// versionOf hashes the identifying and externally-mutated fields of every
// row, so equal data yields an equal version. The forecast module seeds
// its RNG from this, making forecasts deterministic per snapshot.
func versionOf(tables *models.Tables) string {
	h := fnv.New64a()
	for i := range tables.Customers {
		fmt.Fprintf(h, "c|%s\n", tables.Customers[i].ID)
	}
	for i := range tables.Orders {
		o := &tables.Orders[i]
		fmt.Fprintf(h, "o|%s|%s|%d\n", o.ID, o.Status, o.OrderDate.Unix())
	}
	for i := range tables.Products {
		p := &tables.Products[i]
		fmt.Fprintf(h, "p|%s|%d|%s\n", p.ID, p.StockLevel, p.Price.String())
	}
	for i := range tables.Revenue {
		r := &tables.Revenue[i]
		fmt.Fprintf(h, "r|%s|%s\n", r.ID, r.Amount.String())
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SnapshotCache serves a consistent snapshot to concurrent readers and
// refreshes it after the TTL or on explicit invalidation. Readers never
// observe a partially-updated table: a refresh builds a whole new
// snapshot and swaps the pointer.
type SnapshotCache struct {
	store  CollectionStore
	ttl    time.Duration
	logger *zap.Logger

	mu  sync.RWMutex
	cur *Snapshot
}

// NewSnapshotCache creates a cache over the given store.
func NewSnapshotCache(store CollectionStore, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	return &SnapshotCache{
		store:  store,
		ttl:    ttl,
		logger: logger.Named("snapshot-cache"),
	}
}

// Get returns the current snapshot, refreshing it first if stale. A
// refresh failure with a previously loaded snapshot falls back to the
// stale copy rather than failing the request; with no snapshot at all it
// surfaces the load error.
func (c *SnapshotCache) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	cur := c.cur
	c.mu.RUnlock()

	if cur != nil && time.Since(cur.LoadedAt) < c.ttl {
		return cur, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another request may have refreshed while we waited for the lock.
	if c.cur != nil && time.Since(c.cur.LoadedAt) < c.ttl {
		return c.cur, nil
	}

	tables, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*models.Tables, error) {
		return c.store.LoadTables(ctx)
	})
	if err != nil {
		if c.cur != nil {
			c.logger.Warn("snapshot refresh failed, serving stale snapshot",
				zap.String("version", c.cur.Version),
				zap.Error(err))
			return c.cur, nil
		}
		return nil, err
	}

	snap := NewSnapshot(tables, time.Now())
	if c.cur == nil || c.cur.Version != snap.Version {
		c.logger.Info("snapshot refreshed",
			zap.String("version", snap.Version),
			zap.Int("orders", len(tables.Orders)))
	}
	c.cur = snap
	return snap, nil
}

// Invalidate discards the current snapshot so the next Get reloads.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	c.cur = nil
	c.mu.Unlock()
}
