package repositories

import (
	"context"

	"apexify/internal/models"
)

// PopupAdRepository defines the interface for popup ad data access.
type PopupAdRepository interface {
	Create(ctx context.Context, ad *models.PopupAd) error
	GetByID(ctx context.Context, id string) (*models.PopupAd, error)
	List(ctx context.Context) ([]models.PopupAd, error)
	Update(ctx context.Context, ad *models.PopupAd) error
	Delete(ctx context.Context, id string) error
	// Activate makes id the only active ad in a single write.
	Activate(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
	GetActive(ctx context.Context) (*models.PopupAd, error)
}
