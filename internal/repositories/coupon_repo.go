package repositories

import (
	"context"
	"time"

	"apexify/internal/models"
)

// CouponRepository defines the interface for coupon data access.
type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	GetByID(ctx context.Context, id string) (*models.Coupon, error)
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	// List returns every coupon when createdBy is empty.
	List(ctx context.Context, createdBy string) ([]models.Coupon, error)
	Update(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, id string) error
	HasUsage(ctx context.Context, couponID, userID string) (bool, error)
	// Redeem atomically records one use of the coupon by userID. It fails with
	// models.ErrCouponAlreadyUsed or models.ErrCouponLimitReached and leaves
	// no trace in either case.
	Redeem(ctx context.Context, couponID, userID string, at time.Time) error
}
