package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"apexify/internal/models"
	"apexify/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCoupon_FailureOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()
	electronics := []models.CartLine{{ProductID: "p1", Category: models.CategoryElectronics}}

	f.coupon(t, "OLD", models.DiscountFixed, "5", withWindow(now.Add(-48*time.Hour), now.Add(-24*time.Hour)))
	f.coupon(t, "BIG", models.DiscountFixed, "5", withMinPurchase("50"), withCategories(models.CategoryBooks))
	f.coupon(t, "BOOKS", models.DiscountFixed, "5", withCategories(models.CategoryBooks))

	tests := []struct {
		name  string
		code  string
		total string
		want  error
	}{
		{"unknown code", "NOPE", "100", models.ErrCouponNotFound},
		{"expired", "OLD", "100", models.ErrCouponExpired},
		{"below minimum reported before category", "BIG", "20", models.ErrCouponBelowMinimum},
		{"not applicable", "BOOKS", "100", models.ErrCouponNotApplicable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.coupons.ValidateCoupon(ctx, tt.code, decimal.RequireFromString(tt.total), electronics, customerActor.ID)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.coupons.ValidateCoupon(ctx, "BIG", decimal.NewFromInt(20), electronics, customerActor.ID)
	assert.ErrorContains(t, err, "minimum purchase of $50.00 required")
}

func TestValidateCoupon_QuoteDoesNotRedeem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.coupon(t, "SAVE20", models.DiscountPercentage, "20", withMaxDiscount("15"), withLimit(1))
	cart := []models.CartLine{{ProductID: "p1", Category: models.CategoryToys}}

	for i := 0; i < 3; i++ {
		quote, err := f.coupons.ValidateCoupon(ctx, "save20", decimal.NewFromInt(100), cart, customerActor.ID)
		require.NoError(t, err)
		assert.Equal(t, "SAVE20", quote.Code)
		money(t, "15", quote.Discount)
		assert.Equal(t, models.DiscountPercentage, quote.DiscountType)
	}

	coupon, err := f.repos.Coupons.GetByCode(ctx, "SAVE20")
	require.NoError(t, err)
	assert.Equal(t, 0, coupon.UsedCount)
}

func TestApplyCoupon_SameUserTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.coupon(t, "ONCE", models.DiscountFixed, "10")

	applied, err := f.coupons.ApplyCoupon(ctx, "once", customerActor.ID)
	require.NoError(t, err)
	assert.Equal(t, "ONCE", applied.Code)
	assert.Equal(t, models.DiscountFixed, applied.DiscountType)
	stored, err := f.repos.Coupons.GetByCode(ctx, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsedCount)

	_, err = f.coupons.ApplyCoupon(ctx, "ONCE", customerActor.ID)
	assert.ErrorIs(t, err, models.ErrCouponAlreadyUsed)

	_, err = f.coupons.ValidateCoupon(ctx, "ONCE", decimal.NewFromInt(100), nil, customerActor.ID)
	assert.ErrorIs(t, err, models.ErrCouponAlreadyUsed)
}

func TestApplyCoupon_ConcurrentAppliesRespectLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.coupon(t, "LIMITED", models.DiscountFixed, "10", withLimit(3))

	const users = 12
	var wg sync.WaitGroup
	errs := make(chan error, users)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.coupons.ApplyCoupon(ctx, "LIMITED", fmt.Sprintf("user-%d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, models.ErrCouponLimitReached)
	}
	assert.Equal(t, 3, succeeded)

	coupon, err := f.repos.Coupons.GetByCode(ctx, "LIMITED")
	require.NoError(t, err)
	assert.Equal(t, 3, coupon.UsedCount)
	assert.Len(t, coupon.UsedBy, 3)
}

func TestApplyCoupon_LimitReachedAfterLastUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.coupon(t, "LIM3", models.DiscountFixed, "5", withLimit(3))

	for _, user := range []string{"u1", "u2", "u3"} {
		_, err := f.coupons.ApplyCoupon(ctx, "LIM3", user)
		require.NoError(t, err)
	}

	_, err := f.coupons.ApplyCoupon(ctx, "LIM3", "u4")
	assert.ErrorIs(t, err, models.ErrCouponLimitReached)

	_, err = f.coupons.ValidateCoupon(ctx, "LIM3", decimal.NewFromInt(100), nil, "u4")
	assert.ErrorIs(t, err, models.ErrCouponLimitReached)

	in := orderInput(line(f.product(t, "lamp", "20.00", 5, models.CategoryHomeGarden).ID, 1))
	in.CouponCode = "LIM3"
	_, err = f.orders.CreateOrder(ctx, models.Actor{ID: "u4", Role: models.RoleCustomer}, in)
	assert.ErrorIs(t, err, models.ErrCouponLimitReached)
}

func couponInput(code string) services.CouponInput {
	now := time.Now().UTC()
	return services.CouponInput{
		Code:          code,
		DiscountType:  models.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		ValidFrom:     now,
		ValidUntil:    now.Add(7 * 24 * time.Hour),
	}
}

func TestCouponService_Management(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.coupons.CreateCoupon(ctx, vendorActor, couponInput("spring10"))
	require.NoError(t, err)
	assert.Equal(t, "SPRING10", created.Code)
	assert.True(t, created.IsActive)
	assert.Equal(t, vendorActor.ID, created.CreatedBy)

	_, err = f.coupons.CreateCoupon(ctx, adminActor, couponInput("SPRING10"))
	assert.ErrorIs(t, err, models.ErrConflict)
	_, err = f.coupons.CreateCoupon(ctx, customerActor, couponInput("MINE"))
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	bad := couponInput("TOOMUCH")
	bad.DiscountValue = decimal.NewFromInt(150)
	_, err = f.coupons.CreateCoupon(ctx, vendorActor, bad)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.coupons.CreateCoupon(ctx, otherVendor, couponInput("OTHER"))
	require.NoError(t, err)

	all, err := f.coupons.ListCoupons(ctx, adminActor)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	own, err := f.coupons.ListCoupons(ctx, vendorActor)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "SPRING10", own[0].Code)
	_, err = f.coupons.ListCoupons(ctx, customerActor)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	edit := couponInput("SPRING15")
	edit.DiscountValue = decimal.NewFromInt(15)
	_, err = f.coupons.UpdateCoupon(ctx, otherVendor, created.ID, edit)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	updated, err := f.coupons.UpdateCoupon(ctx, vendorActor, created.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, "SPRING15", updated.Code)
	money(t, "15", updated.DiscountValue)

	assert.ErrorIs(t, f.coupons.DeleteCoupon(ctx, otherVendor, created.ID), models.ErrUnauthorized)
	require.NoError(t, f.coupons.DeleteCoupon(ctx, adminActor, created.ID))
	_, err = f.repos.Coupons.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
