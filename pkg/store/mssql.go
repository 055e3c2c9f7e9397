package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/config"
	"github.com/abilabs/insight-engine/pkg/models"
)

// MSSQLStore reads the four collections from SQL Server tables.
type MSSQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMSSQLStore opens a SQL Server connection pool.
func NewMSSQLStore(cfg *config.StoreConfig, logger *zap.Logger) (*MSSQLStore, error) {
	db, err := sql.Open("sqlserver", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlserver store: %w", err)
	}
	db.SetMaxOpenConns(int(cfg.MaxConnections))

	return &MSSQLStore{db: db, logger: logger.Named("store")}, nil
}

// LoadTables implements CollectionStore.
func (s *MSSQLStore) LoadTables(ctx context.Context) (*models.Tables, error) {
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

	return tables, nil
}

func (s *MSSQLStore) loadCustomers(ctx context.Context, tables *models.Tables) error {
	rows, err := s.db.QueryContext(ctx,
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
	return rowsErr("customers", rows)
}

func (s *MSSQLStore) loadOrders(ctx context.Context, tables *models.Tables) error {
	rows, err := s.db.QueryContext(ctx,
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
	return rowsErr("orders", rows)
}

func (s *MSSQLStore) loadProducts(ctx context.Context, tables *models.Tables) error {
	rows, err := s.db.QueryContext(ctx,
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
	return rowsErr("products", rows)
}

func (s *MSSQLStore) loadRevenue(ctx context.Context, tables *models.Tables) error {
	rows, err := s.db.QueryContext(ctx,
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
	return rowsErr("revenue", rows)
}

func rowsErr(name string, rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		return collectionErr(name, err)
	}
	return nil
}

// Close implements CollectionStore.
func (s *MSSQLStore) Close() {
	_ = s.db.Close()
}

var _ CollectionStore = (*MSSQLStore)(nil)
