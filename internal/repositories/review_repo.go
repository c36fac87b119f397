package repositories

import (
	"context"

	"apexify/internal/models"
)

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id string) (*models.Review, error)
	GetByProductAndUser(ctx context.Context, productID, userID string) (*models.Review, error)
	ListByProduct(ctx context.Context, productID string) ([]models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id string) error
	// Aggregate returns the raw mean rating and review count of a product.
	Aggregate(ctx context.Context, productID string) (float64, int, error)
}
