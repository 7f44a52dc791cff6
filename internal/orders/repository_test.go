package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lapzone/lapzone-backend/pkg/db/models"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:orders_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)

	schema := `
CREATE TABLE IF NOT EXISTS products (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL,
  brand TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  year INTEGER NOT NULL DEFAULT 0,
  image_url TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  total_price NUMERIC NOT NULL,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  total_price NUMERIC NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec("DELETE FROM order_items").Error)
	require.NoError(t, db.Exec("DELETE FROM orders").Error)
	require.NoError(t, db.Exec("DELETE FROM products").Error)

	return db
}

func seedOrderProduct(t *testing.T, db *gorm.DB, name string) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     name,
		Slug:     name,
		Price:    decimal.RequireFromString("100.00"),
		IsActive: true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestRepositoryCreateAndFindOwnerScoped(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedOrderProduct(t, db, "thinkpad-x1")
	userID := uuid.New()
	orderID := uuid.New()

	order := &models.Order{
		ID:         orderID,
		UserID:     userID,
		TotalPrice: decimal.RequireFromString("2599.98"),
		Items: []models.OrderItem{
			{
				ProductID:  product.ID,
				Price:      decimal.RequireFromString("1299.99"),
				Quantity:   2,
				TotalPrice: decimal.RequireFromString("2599.98"),
			},
		},
	}
	require.NoError(t, repo.Create(ctx, order))
	assert.NotEqual(t, uuid.Nil, order.Items[0].ID)

	found, err := repo.FindByIDAndUser(ctx, orderID, userID)
	require.NoError(t, err)
	assert.True(t, found.TotalPrice.Equal(decimal.RequireFromString("2599.98")))
	require.Len(t, found.Items, 1)
	assert.Equal(t, product.ID, found.Items[0].ProductID)
	require.NotNil(t, found.Items[0].Product)
	assert.Equal(t, "thinkpad-x1", found.Items[0].Product.Name)

	// A different user never sees the order.
	_, err = repo.FindByIDAndUser(ctx, orderID, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListByUserOrdering(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	older := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)

	cheapNew := uuid.New()
	dearNew := uuid.New()
	old := uuid.New()
	for _, row := range []struct {
		id      uuid.UUID
		total   string
		created time.Time
	}{
		{old, "500.00", older},
		{cheapNew, "10.00", newer},
		{dearNew, "900.00", newer},
	} {
		require.NoError(t, repo.Create(ctx, &models.Order{
			ID:         row.id,
			UserID:     userID,
			TotalPrice: decimal.RequireFromString(row.total),
			CreatedAt:  row.created,
		}))
	}
	// Another user's order must not leak into the listing.
	require.NoError(t, repo.Create(ctx, &models.Order{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		TotalPrice: decimal.RequireFromString("1.00"),
		CreatedAt:  newer,
	}))

	rows, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, dearNew, rows[0].ID)
	assert.Equal(t, cheapNew, rows[1].ID)
	assert.Equal(t, old, rows[2].ID)
}

func TestRepositoryDeleteByIDAndUser(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedOrderProduct(t, db, "macbook-air")
	userID := uuid.New()
	orderID := uuid.New()
	require.NoError(t, repo.Create(ctx, &models.Order{
		ID:         orderID,
		UserID:     userID,
		TotalPrice: decimal.RequireFromString("999.00"),
		Items: []models.OrderItem{
			{
				ProductID:  product.ID,
				Price:      decimal.RequireFromString("999.00"),
				Quantity:   1,
				TotalPrice: decimal.RequireFromString("999.00"),
			},
		},
	}))

	// Wrong owner deletes nothing.
	affected, err := repo.DeleteByIDAndUser(ctx, orderID, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, affected)

	affected, err = repo.DeleteByIDAndUser(ctx, orderID, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	// The cascade removed the items as well.
	var itemCount int64
	require.NoError(t, db.Model(&models.OrderItem{}).Where("order_id = ?", orderID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)
}
