package services_test

import (
	"context"
	"sync"
	"testing"

	"apexify/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlistService_GetCreatesLazily(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repos.Wishlists.GetByUser(ctx, customerActor.ID)
	require.ErrorIs(t, err, models.ErrNotFound)

	first, err := f.wishlists.Get(ctx, customerActor)
	require.NoError(t, err)
	assert.Equal(t, customerActor.ID, first.UserID)
	assert.Empty(t, first.Products)

	again, err := f.wishlists.Get(ctx, customerActor)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestWishlistService_ConcurrentFirstGetSharesOneWishlist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ids := make([]string, 8)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := f.wishlists.Get(ctx, customerActor)
			if assert.NoError(t, err) {
				ids[i] = w.ID
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestWishlistService_AddAndRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lamp := f.product(t, "lamp", "25.00", 3, models.CategoryHomeGarden)
	ball := f.product(t, "ball", "9.00", 3, models.CategorySports)

	w, err := f.wishlists.Add(ctx, customerActor, lamp.ID)
	require.NoError(t, err)
	require.Len(t, w.Products, 1)
	assert.Equal(t, "lamp", w.Products[0].Name)

	_, err = f.wishlists.Add(ctx, customerActor, lamp.ID)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "productId")

	_, err = f.wishlists.Add(ctx, customerActor, "no-such-product")
	assert.ErrorIs(t, err, models.ErrNotFound)

	w, err = f.wishlists.Add(ctx, customerActor, ball.ID)
	require.NoError(t, err)
	assert.Len(t, w.Products, 2)

	w, err = f.wishlists.Remove(ctx, customerActor, lamp.ID)
	require.NoError(t, err)
	require.Len(t, w.Products, 1)
	assert.Equal(t, ball.ID, w.Products[0].ID)

	w, err = f.wishlists.Remove(ctx, customerActor, lamp.ID)
	require.NoError(t, err, "removing an unsaved product is a no-op")
	assert.Len(t, w.Products, 1)

	other, err := f.wishlists.Get(ctx, vendorActor)
	require.NoError(t, err)
	assert.Empty(t, other.Products, "wishlists are per user")
}

func TestWishlistService_RemoveAndClearNeedAWishlist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.wishlists.Remove(ctx, customerActor, "anything")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = f.wishlists.Clear(ctx, customerActor)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestWishlistService_ClearAndDeletedProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lamp := f.product(t, "lamp", "25.00", 3, models.CategoryHomeGarden)
	book := f.product(t, "book", "12.00", 3, models.CategoryBooks)

	_, err := f.wishlists.Add(ctx, customerActor, lamp.ID)
	require.NoError(t, err)
	_, err = f.wishlists.Add(ctx, customerActor, book.ID)
	require.NoError(t, err)

	require.NoError(t, f.repos.Products.Delete(ctx, book.ID))
	w, err := f.wishlists.Get(ctx, customerActor)
	require.NoError(t, err)
	require.Len(t, w.Products, 1, "deleted products drop out of the view")
	assert.Equal(t, lamp.ID, w.Products[0].ID)

	w, err = f.wishlists.Clear(ctx, customerActor)
	require.NoError(t, err)
	assert.Empty(t, w.Products)

	stored, err := f.repos.Wishlists.GetByUser(ctx, customerActor.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.ProductIDs)
}
