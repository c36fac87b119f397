package repositories

import (
	"context"
	"fmt"

	"apexify/internal/models"
)

// Repositories bundles every repository bound to the same store handle
// (or to the same transaction).
type Repositories struct {
	Products  ProductRepository
	Orders    OrderRepository
	Users     UserRepository
	Coupons   CouponRepository
	Reviews   ReviewRepository
	PopupAds  PopupAdRepository
	Wishlists WishlistRepository
}

// Transactor runs fn with repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error
}

// Store is a storage backend.
type Store interface {
	Transactor
	Repositories() Repositories
	Close() error
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s with ID %s %w", kind, id, models.ErrNotFound)
}
