package repositories

import (
	"context"
	"fmt"
	"time"

	"apexify/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMWishlistRepository is a GORM implementation of WishlistRepository.
type GORMWishlistRepository struct {
	db *gorm.DB
}

// NewGORMWishlistRepository creates a new instance of GORMWishlistRepository.
func NewGORMWishlistRepository(db *gorm.DB) *GORMWishlistRepository {
	return &GORMWishlistRepository{db: db}
}

func (r *GORMWishlistRepository) GetByUser(ctx context.Context, userID string) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	if err := r.db.WithContext(ctx).First(&wishlist, "user_id = ?", userID).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, fmt.Errorf("wishlist of user %s %w", userID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get wishlist of user %s: %w", userID, err)
	}
	if wishlist.ProductIDs == nil {
		wishlist.ProductIDs = []string{}
	}
	return &wishlist, nil
}

// Create inserts a wishlist. The unique user_id index reports a second
// wishlist for the same user as models.ErrConflict.
func (r *GORMWishlistRepository) Create(ctx context.Context, wishlist *models.Wishlist) error {
	if wishlist.ID == "" {
		wishlist.ID = uuid.New().String()
	}
	if wishlist.ProductIDs == nil {
		wishlist.ProductIDs = []string{}
	}
	if err := r.db.WithContext(ctx).Create(wishlist).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("wishlist of user %s: %w", wishlist.UserID, models.ErrConflict)
		}
		return fmt.Errorf("failed to create wishlist: %w", err)
	}
	return nil
}

func (r *GORMWishlistRepository) SaveProducts(ctx context.Context, wishlist *models.Wishlist) error {
	wishlist.UpdatedAt = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Wishlist{}).Where("id = ?", wishlist.ID).
		Select("product_ids", "updated_at").
		Updates(wishlist)
	if res.Error != nil {
		return fmt.Errorf("failed to update wishlist: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("wishlist", wishlist.ID)
	}
	return nil
}
