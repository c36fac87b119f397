package repositories

import (
	"context"
	"fmt"
	"slices"
	"time"

	"apexify/internal/models"

	"github.com/google/uuid"
)

// MemoryWishlistRepository is an in-memory implementation of WishlistRepository.
// Wishlists are keyed by user ID.
type MemoryWishlistRepository struct {
	s    *MemoryStore
	inTx bool
}

func (r *MemoryWishlistRepository) GetByUser(_ context.Context, userID string) (*models.Wishlist, error) {
	defer r.s.rlock(r.inTx)()

	wishlist, ok := r.s.data.wishlists[userID]
	if !ok {
		return nil, fmt.Errorf("wishlist of user %s %w", userID, models.ErrNotFound)
	}
	wishlist = cloneWishlist(wishlist)
	return &wishlist, nil
}

func (r *MemoryWishlistRepository) Create(_ context.Context, wishlist *models.Wishlist) error {
	defer r.s.lock(r.inTx)()

	if _, ok := r.s.data.wishlists[wishlist.UserID]; ok {
		return fmt.Errorf("wishlist of user %s: %w", wishlist.UserID, models.ErrConflict)
	}
	if wishlist.ID == "" {
		wishlist.ID = uuid.New().String()
	}
	if wishlist.ProductIDs == nil {
		wishlist.ProductIDs = []string{}
	}
	now := time.Now().UTC()
	wishlist.CreatedAt = now
	wishlist.UpdatedAt = now
	r.s.data.wishlists[wishlist.UserID] = cloneWishlist(*wishlist)
	return nil
}

func (r *MemoryWishlistRepository) SaveProducts(_ context.Context, wishlist *models.Wishlist) error {
	defer r.s.lock(r.inTx)()

	existing, ok := r.s.data.wishlists[wishlist.UserID]
	if !ok || existing.ID != wishlist.ID {
		return notFound("wishlist", wishlist.ID)
	}
	wishlist.UpdatedAt = time.Now().UTC()
	existing.ProductIDs = slices.Clone(wishlist.ProductIDs)
	existing.UpdatedAt = wishlist.UpdatedAt
	r.s.data.wishlists[wishlist.UserID] = existing
	return nil
}

func cloneWishlist(w models.Wishlist) models.Wishlist {
	w.ProductIDs = slices.Clone(w.ProductIDs)
	if w.ProductIDs == nil {
		w.ProductIDs = []string{}
	}
	return w
}
