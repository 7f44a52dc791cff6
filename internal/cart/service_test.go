package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lapzone/lapzone-backend/pkg/db/models"
	pkgerrors "github.com/lapzone/lapzone-backend/pkg/errors"
)

type stubCatalog struct {
	products     map[int64]*models.Product
	batchQueries int
}

func (s *stubCatalog) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalog) FindByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	s.batchQueries++
	var rows []models.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			rows = append(rows, *p)
		}
	}
	return rows, nil
}

func testCartService(t *testing.T, products ...*models.Product) (Service, *stubCatalog, *memoryStore) {
	t.Helper()
	catalog := &stubCatalog{products: map[int64]*models.Product{}}
	for _, p := range products {
		catalog.products[p.ID] = p
	}
	store := newMemoryStore()
	svc, err := NewService(store, catalog)
	require.NoError(t, err)
	return svc, catalog, store
}

func TestServiceAddSuccess(t *testing.T) {
	svc, _, store := testCartService(t, catalogProduct(1, "899.99"))

	msg, err := svc.Add(context.Background(), "s1", AddInput{ProductID: 1, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, MsgAdded, msg)

	lines, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	require.Contains(t, lines, "1")
	assert.Equal(t, 2, lines["1"].Quantity)
}

func TestServiceAddRejectsBadQuantity(t *testing.T) {
	svc, _, store := testCartService(t, catalogProduct(1, "899.99"))

	for _, quantity := range []int{0, -3} {
		_, err := svc.Add(context.Background(), "s1", AddInput{ProductID: 1, Quantity: quantity})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		assert.Equal(t, MsgError, typed.Message())
	}

	// Nothing was persisted.
	_, exists := store.slots["s1"]
	assert.False(t, exists)
}

func TestServiceAddUnknownProductIs404(t *testing.T) {
	svc, _, _ := testCartService(t)

	_, err := svc.Add(context.Background(), "s1", AddInput{ProductID: 99, Quantity: 1})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestServiceUpdateAbsentLineIsSilent(t *testing.T) {
	svc, _, store := testCartService(t, catalogProduct(1, "899.99"))

	msg, err := svc.Update(context.Background(), "s1", 1, 5)
	require.NoError(t, err)
	assert.Equal(t, MsgUpdated, msg)
	_, exists := store.slots["s1"]
	assert.False(t, exists)
}

func TestServiceUpdateUnknownProductIs404(t *testing.T) {
	svc, _, store := testCartService(t)

	_, err := svc.Update(context.Background(), "s1", 999, 3)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	_, exists := store.slots["s1"]
	assert.False(t, exists)
}

func TestServiceRemoveUnknownProductIs404(t *testing.T) {
	svc, _, _ := testCartService(t)

	_, err := svc.Remove(context.Background(), "s1", 999)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestServiceRemoveExistingLine(t *testing.T) {
	svc, _, store := testCartService(t, catalogProduct(1, "899.99"))
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", AddInput{ProductID: 1, Quantity: 1})
	require.NoError(t, err)

	msg, err := svc.Remove(ctx, "s1", 1)
	require.NoError(t, err)
	assert.Equal(t, MsgRemoved, msg)

	lines, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, lines, "1")
}

func TestServiceViewBatchesProductLookup(t *testing.T) {
	svc, catalog, _ := testCartService(t,
		catalogProduct(1, "100.00"),
		catalogProduct(2, "250.50"),
		catalogProduct(3, "0.99"),
	)
	ctx := context.Background()

	for _, id := range []int64{3, 1, 2} {
		_, err := svc.Add(ctx, "s1", AddInput{ProductID: id, Quantity: 2})
		require.NoError(t, err)
	}

	view, err := svc.View(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, 1, catalog.batchQueries, "cart view must resolve products in one query")
	require.Len(t, view.Items, 3)
	assert.Equal(t, int64(1), view.Items[0].ProductID)
	assert.Equal(t, int64(2), view.Items[1].ProductID)
	assert.Equal(t, int64(3), view.Items[2].ProductID)
	assert.Equal(t, 6, view.TotalQuantity)

	want := decimal.RequireFromString("702.98")
	assert.True(t, view.TotalPrice.Equal(want), "got %s", view.TotalPrice)
	lineTotal := decimal.RequireFromString("501.00")
	assert.True(t, view.Items[1].TotalPrice.Equal(lineTotal))
}

func TestServiceViewEmptyCart(t *testing.T) {
	svc, _, _ := testCartService(t)

	view, err := svc.View(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, 0, view.TotalQuantity)
	assert.True(t, view.TotalPrice.IsZero())
}

func TestServiceClear(t *testing.T) {
	svc, _, store := testCartService(t, catalogProduct(1, "10.00"))
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", AddInput{ProductID: 1, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, "s1"))
	_, exists := store.slots["s1"]
	assert.False(t, exists)

	// Clearing an already-empty cart succeeds.
	require.NoError(t, svc.Clear(ctx, "s1"))
}
