package repositories

import (
	"context"
	"fmt"
	"time"

	"apexify/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCouponRepository is a GORM implementation of CouponRepository.
type GORMCouponRepository struct {
	db *gorm.DB
}

// NewGORMCouponRepository creates a new instance of GORMCouponRepository.
func NewGORMCouponRepository(db *gorm.DB) *GORMCouponRepository {
	return &GORMCouponRepository{db: db}
}

func (r *GORMCouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	if coupon.ID == "" {
		coupon.ID = uuid.New().String()
	}
	err := r.db.WithContext(ctx).Omit("UsedBy").Create(coupon).Error
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("coupon code %s: %w", coupon.Code, models.ErrConflict)
		}
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	return nil
}

func (r *GORMCouponRepository) GetByID(ctx context.Context, id string) (*models.Coupon, error) {
	return r.first(ctx, "id = ?", id, id)
}

func (r *GORMCouponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return r.first(ctx, "code = ?", code, code)
}

func (r *GORMCouponRepository) first(ctx context.Context, cond, arg, label string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).Preload("UsedBy").First(&coupon, cond, arg).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, fmt.Errorf("%s: %w", label, models.ErrCouponNotFound)
		}
		return nil, fmt.Errorf("failed to get coupon %s: %w", label, err)
	}
	return &coupon, nil
}

func (r *GORMCouponRepository) List(ctx context.Context, createdBy string) ([]models.Coupon, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if createdBy != "" {
		query = query.Where("created_by = ?", createdBy)
	}
	var coupons []models.Coupon
	if err := query.Find(&coupons).Error; err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}

// Update writes the editable fields. Usage counters are owned by Redeem.
func (r *GORMCouponRepository) Update(ctx context.Context, coupon *models.Coupon) error {
	res := r.db.WithContext(ctx).Model(&models.Coupon{}).Where("id = ?", coupon.ID).
		Select("code", "description", "discount_type", "discount_value", "min_purchase", "max_discount",
			"usage_limit", "valid_from", "valid_until", "applicable_categories", "applicable_products",
			"is_active", "updated_at").
		Updates(coupon)
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return fmt.Errorf("coupon code %s: %w", coupon.Code, models.ErrConflict)
		}
		return fmt.Errorf("failed to update coupon: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", coupon.ID, models.ErrCouponNotFound)
	}
	return nil
}

func (r *GORMCouponRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("coupon_id = ?", id).Delete(&models.CouponUsage{}).Error; err != nil {
			return fmt.Errorf("failed to delete coupon usages: %w", err)
		}
		res := tx.Delete(&models.Coupon{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete coupon: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%s: %w", id, models.ErrCouponNotFound)
		}
		return nil
	})
}

func (r *GORMCouponRepository) HasUsage(ctx context.Context, couponID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CouponUsage{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check coupon usage: %w", err)
	}
	return count > 0, nil
}

// Redeem inserts the usage row first so the unique (coupon_id, user_id)
// index rejects a second redemption by the same user, then bumps used_count
// only while it is below usage_limit. Both writes share one transaction
// (a savepoint when called inside an outer transaction).
func (r *GORMCouponRepository) Redeem(ctx context.Context, couponID, userID string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		usage := models.CouponUsage{
			ID:       uuid.New().String(),
			CouponID: couponID,
			UserID:   userID,
			UsedAt:   at,
		}
		if err := tx.Create(&usage).Error; err != nil {
			if isDuplicate(err) {
				return models.ErrCouponAlreadyUsed
			}
			return fmt.Errorf("failed to record coupon usage: %w", err)
		}

		res := tx.Model(&models.Coupon{}).
			Where("id = ? AND is_active = ? AND (usage_limit IS NULL OR used_count < usage_limit)", couponID, true).
			UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("failed to increment coupon usage: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return models.ErrCouponLimitReached
		}
		return nil
	})
}
