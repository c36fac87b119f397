package repositories

import (
	"context"
	"fmt"

	"apexify/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMPopupAdRepository is a GORM implementation of PopupAdRepository.
type GORMPopupAdRepository struct {
	db *gorm.DB
}

// NewGORMPopupAdRepository creates a new instance of GORMPopupAdRepository.
func NewGORMPopupAdRepository(db *gorm.DB) *GORMPopupAdRepository {
	return &GORMPopupAdRepository{db: db}
}

func (r *GORMPopupAdRepository) Create(ctx context.Context, ad *models.PopupAd) error {
	if ad.ID == "" {
		ad.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(ad).Error; err != nil {
		return fmt.Errorf("failed to create popup ad: %w", err)
	}
	return nil
}

func (r *GORMPopupAdRepository) GetByID(ctx context.Context, id string) (*models.PopupAd, error) {
	var ad models.PopupAd
	if err := r.db.WithContext(ctx).First(&ad, "id = ?", id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, notFound("popup ad", id)
		}
		return nil, fmt.Errorf("failed to get popup ad by ID %s: %w", id, err)
	}
	return &ad, nil
}

func (r *GORMPopupAdRepository) List(ctx context.Context) ([]models.PopupAd, error) {
	var ads []models.PopupAd
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&ads).Error; err != nil {
		return nil, fmt.Errorf("failed to list popup ads: %w", err)
	}
	return ads, nil
}

// Update writes the presentation fields. Activation goes through Activate.
func (r *GORMPopupAdRepository) Update(ctx context.Context, ad *models.PopupAd) error {
	res := r.db.WithContext(ctx).Model(&models.PopupAd{}).Where("id = ?", ad.ID).
		Select("title", "description", "image_url", "link_url", "button_text", "background_color",
			"text_color", "display_duration", "delay_before_show", "updated_at").
		Updates(ad)
	if res.Error != nil {
		return fmt.Errorf("failed to update popup ad: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("popup ad", ad.ID)
	}
	return nil
}

func (r *GORMPopupAdRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.PopupAd{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete popup ad: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("popup ad", id)
	}
	return nil
}

// Activate flips every row in one statement: the target becomes active and
// all others inactive.
func (r *GORMPopupAdRepository) Activate(ctx context.Context, id string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&models.PopupAd{}).
		UpdateColumn("is_active", gorm.Expr("CASE WHEN id = ? THEN ? ELSE ? END", id, true, false)).Error
	if err != nil {
		return fmt.Errorf("failed to activate popup ad %s: %w", id, err)
	}
	return nil
}

func (r *GORMPopupAdRepository) Deactivate(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.PopupAd{}).Where("id = ?", id).UpdateColumn("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate popup ad %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("popup ad", id)
	}
	return nil
}

func (r *GORMPopupAdRepository) GetActive(ctx context.Context) (*models.PopupAd, error) {
	var ad models.PopupAd
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("updated_at DESC").First(&ad).Error
	if err != nil {
		if isRecordNotFound(err) {
			return nil, fmt.Errorf("active popup ad %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get active popup ad: %w", err)
	}
	return &ad, nil
}
