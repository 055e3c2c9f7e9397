// Package store loads the four entity collections from the remote
// document store and serves immutable, versioned snapshots to the rest of
// the engine. The engine is read-only; the write path is an external
// collaborator.
package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/config"
	"github.com/abilabs/insight-engine/pkg/models"
)

// CollectionStore fetches all four collections. A failed or missing
// collection is a hard failure (apperrors.ErrDataUnavailable); partial
// data would produce silently wrong analytics.
type CollectionStore interface {
	// LoadTables fetches customers, orders, products and revenue.
	LoadTables(ctx context.Context) (*models.Tables, error)

	// Close releases the underlying connections.
	Close()
}

// NewCollectionStore builds the adapter selected by cfg.Driver.
func NewCollectionStore(ctx context.Context, cfg *config.StoreConfig, logger *zap.Logger) (CollectionStore, error) {
	switch cfg.Driver {
	case "", "postgres":
		return NewPostgresStore(ctx, cfg, logger)
	case "sqlserver", "mssql":
		return NewMSSQLStore(cfg, logger)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
