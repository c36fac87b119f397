package repositories

import (
	"context"
	"maps"
	"slices"
	"sync"

	"apexify/internal/models"
)

// MemoryStore is an in-memory Store. Every repository call is serialised by
// one mutex; WithinTransaction holds that mutex for the whole callback and
// restores a snapshot when the callback fails.
type MemoryStore struct {
	mu   sync.RWMutex
	data memoryData
}

type memoryData struct {
	products  map[string]models.Product
	orders    map[string]models.Order
	users     map[string]models.User
	coupons   map[string]models.Coupon
	usages    map[string]models.CouponUsage // keyed by couponID + "/" + userID
	reviews   map[string]models.Review
	popupAds  map[string]models.PopupAd
	wishlists map[string]models.Wishlist // keyed by user ID
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: memoryData{
			products:  make(map[string]models.Product),
			orders:    make(map[string]models.Order),
			users:     make(map[string]models.User),
			coupons:   make(map[string]models.Coupon),
			usages:    make(map[string]models.CouponUsage),
			reviews:   make(map[string]models.Review),
			popupAds:  make(map[string]models.PopupAd),
			wishlists: make(map[string]models.Wishlist),
		},
	}
}

// Stored values are replaced wholesale on every write, so a shallow copy of
// each map is a consistent snapshot.
func (d memoryData) snapshot() memoryData {
	return memoryData{
		products:  maps.Clone(d.products),
		orders:    maps.Clone(d.orders),
		users:     maps.Clone(d.users),
		coupons:   maps.Clone(d.coupons),
		usages:    maps.Clone(d.usages),
		reviews:   maps.Clone(d.reviews),
		popupAds:  maps.Clone(d.popupAds),
		wishlists: maps.Clone(d.wishlists),
	}
}

func (s *MemoryStore) Repositories() Repositories {
	return memoryRepositories(s, false)
}

func (s *MemoryStore) WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.data.snapshot()
	if err := fn(memoryRepositories(s, true)); err != nil {
		s.data = saved
		return err
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// rlock and lock are no-ops for repositories bound to a running transaction,
// which already holds the write lock.
func (s *MemoryStore) rlock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *MemoryStore) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func memoryRepositories(s *MemoryStore, inTx bool) Repositories {
	return Repositories{
		Products:  &MemoryProductRepository{s: s, inTx: inTx},
		Orders:    &MemoryOrderRepository{s: s, inTx: inTx},
		Users:     &MemoryUserRepository{s: s, inTx: inTx},
		Coupons:   &MemoryCouponRepository{s: s, inTx: inTx},
		Reviews:   &MemoryReviewRepository{s: s, inTx: inTx},
		PopupAds:  &MemoryPopupAdRepository{s: s, inTx: inTx},
		Wishlists: &MemoryWishlistRepository{s: s, inTx: inTx},
	}
}

func cloneProduct(p models.Product) models.Product {
	p.Images = slices.Clone(p.Images)
	p.Tags = slices.Clone(p.Tags)
	return p
}

func cloneOrder(o models.Order) models.Order {
	o.Items = slices.Clone(o.Items)
	if o.DeliveredAt != nil {
		v := *o.DeliveredAt
		o.DeliveredAt = &v
	}
	return o
}

func cloneCoupon(c models.Coupon) models.Coupon {
	c.ApplicableCategories = slices.Clone(c.ApplicableCategories)
	c.ApplicableProducts = slices.Clone(c.ApplicableProducts)
	c.UsedBy = slices.Clone(c.UsedBy)
	if c.MaxDiscount != nil {
		v := *c.MaxDiscount
		c.MaxDiscount = &v
	}
	if c.UsageLimit != nil {
		v := *c.UsageLimit
		c.UsageLimit = &v
	}
	return c
}
