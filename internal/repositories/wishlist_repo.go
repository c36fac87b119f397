package repositories

import (
	"context"

	"apexify/internal/models"
)

// WishlistRepository defines the interface for wishlist data access.
type WishlistRepository interface {
	// GetByUser returns the wishlist of userID or models.ErrNotFound.
	GetByUser(ctx context.Context, userID string) (*models.Wishlist, error)
	// Create fails with models.ErrConflict when the user already has one.
	Create(ctx context.Context, wishlist *models.Wishlist) error
	// SaveProducts replaces the saved product list.
	SaveProducts(ctx context.Context, wishlist *models.Wishlist) error
}
