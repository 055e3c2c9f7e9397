package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/apperrors"
	"github.com/abilabs/insight-engine/pkg/config"
	"github.com/abilabs/insight-engine/pkg/models"
)

// PostgresStore reads the four collections from PostgreSQL tables.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates a connection pool and verifies connectivity.
func NewPostgresStore(ctx context.Context, cfg *config.StoreConfig, logger *zap.Logger) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse store URL: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConnections
	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 10
	}
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping store: %w", err)
	}

	return &PostgresStore{pool: pool, logger: logger.Named("store")}, nil
}

// LoadTables implements CollectionStore.
func (s *PostgresStore) LoadTables(ctx context.Context) (*models.Tables, error) {
	tables := &models.Tables{}

	if err := s.loadCustomers(ctx, tables); err != nil {
		return nil, err
	}
	if err := s.loadOrders(ctx, tables); err != nil {
		return nil, err
	}
	if err := s.loadProducts(ctx, tables); err != nil {
		return nil, err
	}
	if err := s.loadRevenue(ctx, tables); err != nil {
		return nil, err
	}

	s.logger.Debug("tables loaded",
		zap.Int("customers", len(tables.Customers)),
		zap.Int("orders", len(tables.Orders)),
		zap.Int("products", len(tables.Products)),
		zap.Int("revenue", len(tables.Revenue)))

	return tables, nil
}

func collectionErr(name string, err error) error {
	return fmt.Errorf("collection %q: %w: %v", name, apperrors.ErrDataUnavailable, err)
}

func (s *PostgresStore) loadCustomers(ctx context.Context, tables *models.Tables) error {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, region FROM customers ORDER BY id`)
	if err != nil {
		return collectionErr("customers", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Region); err != nil {
			return collectionErr("customers", err)
		}
		tables.Customers = append(tables.Customers, c)
	}
	if err := rows.Err(); err != nil {
		return collectionErr("customers", err)
	}
	return nil
}

func (s *PostgresStore) loadOrders(ctx context.Context, tables *models.Tables) error {
	rows, err := s.pool.Query(ctx,
		`SELECT id, customer_id, product_id, status, order_date, ship_date, estimated_delivery, shipping_method
		   FROM orders ORDER BY id`)
	if err != nil {
		return collectionErr("orders", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Order
		var status string
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.ProductID, &status,
			&o.OrderDate, &o.ShipDate, &o.EstimatedDelivery, &o.ShippingMethod); err != nil {
			return collectionErr("orders", err)
		}
		o.Status = models.ParseOrderStatus(status)
		tables.Orders = append(tables.Orders, o)
	}
	if err := rows.Err(); err != nil {
		return collectionErr("orders", err)
	}
	return nil
}

func (s *PostgresStore) loadProducts(ctx context.Context, tables *models.Tables) error {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, category, price, stock_level FROM products ORDER BY id`)
	if err != nil {
		return collectionErr("products", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		var price string
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &price, &p.StockLevel); err != nil {
			return collectionErr("products", err)
		}
		d, err := decimal.NewFromString(price)
		if err != nil {
			return collectionErr("products", err)
		}
		p.Price = d
		tables.Products = append(tables.Products, p)
	}
	if err := rows.Err(); err != nil {
		return collectionErr("products", err)
	}
	return nil
}

func (s *PostgresStore) loadRevenue(ctx context.Context, tables *models.Tables) error {
	rows, err := s.pool.Query(ctx,
		`SELECT id, order_id, amount, date, payment_method FROM revenue ORDER BY id`)
	if err != nil {
		return collectionErr("revenue", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r models.Revenue
		var amount string
		if err := rows.Scan(&r.ID, &r.OrderID, &amount, &r.Date, &r.PaymentMethod); err != nil {
			return collectionErr("revenue", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return collectionErr("revenue", err)
		}
		r.Amount = d
		tables.Revenue = append(tables.Revenue, r)
	}
	if err := rows.Err(); err != nil {
		return collectionErr("revenue", err)
	}
	return nil
}

// Close implements CollectionStore.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

var _ CollectionStore = (*PostgresStore)(nil)
