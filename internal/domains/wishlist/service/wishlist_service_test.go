package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogModel "bookstore-ecommerce/internal/domains/catalog/model"
	catalogService "bookstore-ecommerce/internal/domains/catalog/service"
	"bookstore-ecommerce/internal/domains/wishlist/service"
	"bookstore-ecommerce/internal/infrastructure/memory"
)

func newWishlist(t *testing.T) service.Service {
	t.Helper()
	store := memory.NewStore()
	store.SeedBook(catalogModel.Book{ID: 7, Title: "The Pragmatic Programmer", Price: decimal.RequireFromString("31.90"), Stock: 3})
	store.SeedBook(catalogModel.Book{ID: 8, Title: "Sold Out", Price: decimal.RequireFromString("9.00"), Stock: 0})
	catalog := catalogService.NewCatalogService(store.Catalog(), memory.NewCache())
	return service.NewWishlistService(store.Wishlist(), catalog)
}

func TestWishlist_AddIsIdempotent(t *testing.T) {
	svc := newWishlist(t)
	ctx := context.Background()
	userID := uuid.New()

	added, err := svc.Add(ctx, userID, 7)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = svc.Add(ctx, userID, 7)
	require.NoError(t, err)
	assert.False(t, added)

	items, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "The Pragmatic Programmer", items[0].Title)
	assert.True(t, items[0].InStock)
}

func TestWishlist_UnknownBook(t *testing.T) {
	svc := newWishlist(t)

	_, err := svc.Add(context.Background(), uuid.New(), 404)
	assert.ErrorIs(t, err, catalogModel.ErrBookNotFound)
}

func TestWishlist_RemoveAndIsolation(t *testing.T) {
	svc := newWishlist(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	_, err := svc.Add(ctx, alice, 7)
	require.NoError(t, err)
	_, err = svc.Add(ctx, alice, 8)
	require.NoError(t, err)

	items, err := svc.List(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, svc.Remove(ctx, alice, 7))
	// xoá dòng không tồn tại không lỗi
	require.NoError(t, svc.Remove(ctx, alice, 7))

	items, err = svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(8), items[0].BookID)
	assert.False(t, items[0].InStock)
}
