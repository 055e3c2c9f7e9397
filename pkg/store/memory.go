package store

import (
	"context"
	"fmt"

	"github.com/abilabs/insight-engine/pkg/apperrors"
	"github.com/abilabs/insight-engine/pkg/models"
)

// MemoryStore serves fixed tables from memory. Used in tests and for
// local development without a document store.
type MemoryStore struct {
	tables *models.Tables

	// Err, when set, is returned by every LoadTables call.
	Err error

	// LoadCalls counts LoadTables invocations for cache tests.
	LoadCalls int
}

// NewMemoryStore wraps the given tables. Nil collections are rejected at
// load time, mirroring the partial-data rule of the real adapters.
func NewMemoryStore(tables *models.Tables) *MemoryStore {
	return &MemoryStore{tables: tables}
}

// LoadTables implements CollectionStore.
func (s *MemoryStore) LoadTables(ctx context.Context) (*models.Tables, error) {
	s.LoadCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	if s.tables == nil {
		return nil, fmt.Errorf("no tables: %w", apperrors.ErrDataUnavailable)
	}

	// Copy the slices so callers cannot mutate the fixture between loads.
	out := &models.Tables{
		Customers: append([]models.Customer(nil), s.tables.Customers...),
		Orders:    append([]models.Order(nil), s.tables.Orders...),
		Products:  append([]models.Product(nil), s.tables.Products...),
		Revenue:   append([]models.Revenue(nil), s.tables.Revenue...),
	}
	return out, nil
}

// Replace swaps the fixture tables, simulating an external write.
func (s *MemoryStore) Replace(tables *models.Tables) {
	s.tables = tables
}

// Close implements CollectionStore.
func (s *MemoryStore) Close() {}

var _ CollectionStore = (*MemoryStore)(nil)
