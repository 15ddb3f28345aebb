package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore-ecommerce/internal/domains/cart/model"
	"bookstore-ecommerce/internal/domains/cart/service"
	catalogModel "bookstore-ecommerce/internal/domains/catalog/model"
	catalogService "bookstore-ecommerce/internal/domains/catalog/service"
	"bookstore-ecommerce/internal/infrastructure/memory"
)

func newReconciler(t *testing.T) service.Reconciler {
	t.Helper()
	store := memory.NewStore()
	store.SeedBook(catalogModel.Book{ID: 1, Title: "Clean Code", Price: decimal.RequireFromString("12.50"), Stock: 10})
	store.SeedBook(catalogModel.Book{ID: 2, Title: "Refactoring", Price: decimal.RequireFromString("20.00"), Stock: 2})
	store.SeedBook(catalogModel.Book{ID: 3, Title: "Out of Print", Price: decimal.RequireFromString("5.00"), Stock: 0})
	return service.NewReconciler(catalogService.NewCatalogService(store.Catalog(), memory.NewCache()))
}

func TestReconcile_ClampsAndDrops(t *testing.T) {
	r := newReconciler(t)

	res, err := r.Reconcile(context.Background(), []model.LineRequest{
		{BookID: 1, Quantity: 2},
		{BookID: 2, Quantity: 5},
		{BookID: 3, Quantity: 1},
		{BookID: 404, Quantity: 1},
	})
	require.NoError(t, err)

	require.Len(t, res.Lines, 2)
	assert.Equal(t, 2, res.Lines[0].Quantity)
	assert.Equal(t, "25.00", res.Lines[0].LineTotal.StringFixed(2))
	assert.Equal(t, 2, res.Lines[1].Quantity)
	assert.Equal(t, "65.00", res.Subtotal.StringFixed(2))

	assert.Equal(t, []model.Adjustment{
		{BookID: 2, Kind: model.AdjustmentPartiallyFulfilled, Requested: 5, Granted: 2},
		{BookID: 3, Kind: model.AdjustmentOutOfStock, Requested: 1},
		{BookID: 404, Kind: model.AdjustmentRemoved, Requested: 1},
	}, res.Adjustments)
}

func TestReconcile_MergesDuplicateLines(t *testing.T) {
	r := newReconciler(t)

	res, err := r.Reconcile(context.Background(), []model.LineRequest{
		{BookID: 1, Quantity: 3},
		{BookID: 1, Quantity: 4},
	})
	require.NoError(t, err)

	require.Len(t, res.Lines, 1)
	assert.Equal(t, 7, res.Lines[0].Quantity)
	assert.False(t, res.HasAdjustments())
	assert.Equal(t, []model.LineRequest{{BookID: 1, Quantity: 7}}, res.LineRequests())
}

func TestReconcile_UsesServerPrice(t *testing.T) {
	r := newReconciler(t)

	res, err := r.Reconcile(context.Background(), []model.LineRequest{{BookID: 2, Quantity: 1}})
	require.NoError(t, err)
	assert.True(t, res.Lines[0].UnitPrice.Equal(decimal.NewFromInt(20)))
}

func TestReconcile_RejectsInvalidInput(t *testing.T) {
	r := newReconciler(t)

	_, err := r.Reconcile(context.Background(), nil)
	assert.Error(t, err)

	_, err = r.Reconcile(context.Background(), []model.LineRequest{{BookID: 1, Quantity: 0}})
	assert.Error(t, err)
}
