package products

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lapzone/lapzone-backend/pkg/db/models"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:products_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

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
);`
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec("DELETE FROM products").Error)

	return db
}

func seedProduct(t *testing.T, repo *Repository, name, slug, price, category string, active bool) *models.Product {
	t.Helper()
	product, err := repo.Create(context.Background(), &models.Product{
		Name:     name,
		Slug:     slug,
		Price:    decimal.RequireFromString(price),
		Category: category,
		IsActive: active,
	})
	require.NoError(t, err)
	return product
}

func TestRepositoryFindByIDAndSlug(t *testing.T) {
	repo := NewRepository(setupProductsTestDB(t))
	ctx := context.Background()

	seeded := seedProduct(t, repo, "ZenBook 14", "zenbook-14", "899.99", "ultrabook", true)

	byID, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "ZenBook 14", byID.Name)
	assert.True(t, byID.Price.Equal(decimal.RequireFromString("899.99")))

	bySlug, err := repo.FindBySlug(ctx, "zenbook-14")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, bySlug.ID)
}

func TestRepositoryHidesInactiveProducts(t *testing.T) {
	repo := NewRepository(setupProductsTestDB(t))
	ctx := context.Background()

	inactive := seedProduct(t, repo, "Retired Model", "retired-model", "100.00", "ultrabook", false)

	_, err := repo.FindByID(ctx, inactive.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.FindBySlug(ctx, "retired-model")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryFindByIDsBatches(t *testing.T) {
	repo := NewRepository(setupProductsTestDB(t))
	ctx := context.Background()

	first := seedProduct(t, repo, "Laptop A", "laptop-a", "500.00", "gaming", true)
	second := seedProduct(t, repo, "Laptop B", "laptop-b", "700.00", "gaming", true)
	seedProduct(t, repo, "Laptop C", "laptop-c", "900.00", "gaming", true)

	rows, err := repo.FindByIDs(ctx, []int64{second.ID, first.ID})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Ascending id order regardless of input order.
	assert.Equal(t, first.ID, rows[0].ID)
	assert.Equal(t, second.ID, rows[1].ID)

	rows, err = repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRepositoryListFiltersAndCounts(t *testing.T) {
	repo := NewRepository(setupProductsTestDB(t))
	ctx := context.Background()

	seedProduct(t, repo, "Budget Book", "budget-book", "399.00", "budget", true)
	seedProduct(t, repo, "Gamer Pro", "gamer-pro", "1999.00", "gaming", true)
	seedProduct(t, repo, "Gamer Lite", "gamer-lite", "1299.00", "gaming", true)
	seedProduct(t, repo, "Hidden", "hidden", "1.00", "gaming", false)

	rows, total, err := repo.List(ctx, ListParams{Category: "gaming", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, rows, 2)
	// Ordered by name.
	assert.Equal(t, "Gamer Lite", rows[0].Name)
	assert.Equal(t, "Gamer Pro", rows[1].Name)

	rows, total, err = repo.List(ctx, ListParams{Category: "gaming", Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Gamer Pro", rows[0].Name)
}
