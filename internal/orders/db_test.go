package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/neiist-dev/shop-backend/pkg/db/models"
	"github.com/neiist-dev/shop-backend/pkg/enums"
	"github.com/neiist-dev/shop-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  category TEXT NOT NULL,
  price NUMERIC NOT NULL,
  stock_type TEXT NOT NULL DEFAULT 'limited',
  order_deadline DATETIME,
  min_order_quantity INTEGER,
  estimated_delivery TEXT,
  visible INTEGER NOT NULL DEFAULT 1,
  featured INTEGER NOT NULL DEFAULT 0,
  option_schema TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	variants := `
CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  options TEXT,
  price_modifier NUMERIC NOT NULL DEFAULT 0,
  stock_quantity INTEGER,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  order_id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  ist_id TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT,
  nif TEXT,
  campus TEXT NOT NULL,
  notes TEXT,
  total_amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  paid_by TEXT,
  paid_at DATETIME,
  ready_by TEXT,
  ready_at DATETIME,
  delivered_by TEXT,
  delivered_at DATETIME,
  cancelled_by TEXT,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  variant_id TEXT,
  options TEXT,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, conn.Exec(products).Error)
	require.NoError(t, conn.Exec(variants).Error)
	require.NoError(t, conn.Exec(orders).Error)
	require.NoError(t, conn.Exec(orderItems).Error)
	return conn
}

// gormTxRunner adapts a bare gorm DB to the transaction-runner surface the
// service expects, for tests that bypass the full db client.
type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func seedOrder(t *testing.T, conn *gorm.DB, orderID string, status enums.OrderStatus) *models.Order {
	t.Helper()

	order := &models.Order{
		OrderID:     orderID,
		Name:        "Maria Silva",
		ISTID:       "ist1100000",
		Email:       "maria.silva@tecnico.ulisboa.pt",
		Campus:      enums.CampusAlameda,
		TotalAmount: decimal.RequireFromString("44.00"),
		Status:      status,
	}
	require.NoError(t, conn.Omit("Items").Create(order).Error)
	return order
}

func seedOrderItem(t *testing.T, conn *gorm.DB, orderID, productID string, qty int, createdAt time.Time) *models.OrderItem {
	t.Helper()

	item := &models.OrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: "Product " + productID,
		Options:     types.OptionMap{"size": "M"},
		Quantity:    qty,
		UnitPrice:   decimal.RequireFromString("22.00"),
		CreatedAt:   createdAt,
	}
	require.NoError(t, conn.Create(item).Error)
	return item
}

func seedCatalogProduct(t *testing.T, conn *gorm.DB, product *models.Product) {
	t.Helper()
	require.NoError(t, conn.Omit("Variants").Create(product).Error)
	for i := range product.Variants {
		variant := product.Variants[i]
		variant.ProductID = product.ID
		require.NoError(t, conn.Create(&variant).Error)
	}
}
