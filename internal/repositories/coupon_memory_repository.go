package repositories

import (
	"context"
	"fmt"
	"sort"
	"time"

	"apexify/internal/models"

	"github.com/google/uuid"
)

// MemoryCouponRepository is an in-memory implementation of CouponRepository.
type MemoryCouponRepository struct {
	s    *MemoryStore
	inTx bool
}

func usageKey(couponID, userID string) string { return couponID + "/" + userID }

func (r *MemoryCouponRepository) codeTaken(code, exceptID string) bool {
	for _, c := range r.s.data.coupons {
		if c.Code == code && c.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *MemoryCouponRepository) Create(_ context.Context, coupon *models.Coupon) error {
	defer r.s.lock(r.inTx)()

	if r.codeTaken(coupon.Code, "") {
		return fmt.Errorf("coupon code %s: %w", coupon.Code, models.ErrConflict)
	}
	if coupon.ID == "" {
		coupon.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	coupon.CreatedAt = now
	coupon.UpdatedAt = now
	stored := cloneCoupon(*coupon)
	stored.UsedBy = nil
	r.s.data.coupons[coupon.ID] = stored
	return nil
}

// withUsages returns a copy of c with UsedBy populated. Caller holds the lock.
func (r *MemoryCouponRepository) withUsages(c models.Coupon) models.Coupon {
	c = cloneCoupon(c)
	c.UsedBy = nil
	for _, u := range r.s.data.usages {
		if u.CouponID == c.ID {
			c.UsedBy = append(c.UsedBy, u)
		}
	}
	sort.Slice(c.UsedBy, func(i, j int) bool { return c.UsedBy[i].UsedAt.Before(c.UsedBy[j].UsedAt) })
	return c
}

func (r *MemoryCouponRepository) GetByID(_ context.Context, id string) (*models.Coupon, error) {
	defer r.s.rlock(r.inTx)()

	c, ok := r.s.data.coupons[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, models.ErrCouponNotFound)
	}
	c = r.withUsages(c)
	return &c, nil
}

func (r *MemoryCouponRepository) GetByCode(_ context.Context, code string) (*models.Coupon, error) {
	defer r.s.rlock(r.inTx)()

	for _, c := range r.s.data.coupons {
		if c.Code == code {
			c = r.withUsages(c)
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", code, models.ErrCouponNotFound)
}

func (r *MemoryCouponRepository) List(_ context.Context, createdBy string) ([]models.Coupon, error) {
	defer r.s.rlock(r.inTx)()

	coupons := make([]models.Coupon, 0)
	for _, c := range r.s.data.coupons {
		if createdBy == "" || c.CreatedBy == createdBy {
			coupons = append(coupons, cloneCoupon(c))
		}
	}
	sort.Slice(coupons, func(i, j int) bool {
		if !coupons[i].CreatedAt.Equal(coupons[j].CreatedAt) {
			return coupons[i].CreatedAt.After(coupons[j].CreatedAt)
		}
		return coupons[i].ID < coupons[j].ID
	})
	return coupons, nil
}

func (r *MemoryCouponRepository) Update(_ context.Context, coupon *models.Coupon) error {
	defer r.s.lock(r.inTx)()

	existing, ok := r.s.data.coupons[coupon.ID]
	if !ok {
		return fmt.Errorf("%s: %w", coupon.ID, models.ErrCouponNotFound)
	}
	if r.codeTaken(coupon.Code, coupon.ID) {
		return fmt.Errorf("coupon code %s: %w", coupon.Code, models.ErrConflict)
	}
	updated := cloneCoupon(*coupon)
	updated.UsedBy = nil
	updated.UsedCount = existing.UsedCount
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	r.s.data.coupons[coupon.ID] = updated
	return nil
}

func (r *MemoryCouponRepository) Delete(_ context.Context, id string) error {
	defer r.s.lock(r.inTx)()

	if _, ok := r.s.data.coupons[id]; !ok {
		return fmt.Errorf("%s: %w", id, models.ErrCouponNotFound)
	}
	delete(r.s.data.coupons, id)
	for key, u := range r.s.data.usages {
		if u.CouponID == id {
			delete(r.s.data.usages, key)
		}
	}
	return nil
}

func (r *MemoryCouponRepository) HasUsage(_ context.Context, couponID, userID string) (bool, error) {
	defer r.s.rlock(r.inTx)()

	_, ok := r.s.data.usages[usageKey(couponID, userID)]
	return ok, nil
}

// Redeem checks both conditions before writing anything, under the write lock.
func (r *MemoryCouponRepository) Redeem(_ context.Context, couponID, userID string, at time.Time) error {
	defer r.s.lock(r.inTx)()

	key := usageKey(couponID, userID)
	if _, used := r.s.data.usages[key]; used {
		return models.ErrCouponAlreadyUsed
	}
	c, ok := r.s.data.coupons[couponID]
	if !ok || !c.IsActive || (c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit) {
		return models.ErrCouponLimitReached
	}
	c.UsedCount++
	r.s.data.coupons[couponID] = c
	r.s.data.usages[key] = models.CouponUsage{
		ID:       uuid.New().String(),
		CouponID: couponID,
		UserID:   userID,
		UsedAt:   at,
	}
	return nil
}
