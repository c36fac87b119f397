package services_test

import (
	"context"
	"testing"
	"time"

	"apexify/internal/models"
	"apexify/internal/repositories"
	"apexify/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store     *repositories.MemoryStore
	repos     repositories.Repositories
	notifier  *MockNotifier
	coupons   *services.CouponService
	orders    *services.OrderService
	reviews   *services.ReviewService
	popups    *services.PopupAdService
	wishlists *services.WishlistService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repositories.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	notifier := new(MockNotifier)
	notifier.On("OrderCreated", mock.Anything, mock.Anything).Maybe()
	notifier.On("OrderStatusChanged", mock.Anything, mock.Anything, mock.Anything).Maybe()
	notifier.On("UserRegistered", mock.Anything, mock.Anything).Maybe()

	repos := store.Repositories()
	coupons := services.NewCouponService(repos, store)
	return &fixture{
		store:     store,
		repos:     repos,
		notifier:  notifier,
		coupons:   coupons,
		orders:    services.NewOrderService(repos, store, coupons, notifier),
		reviews:   services.NewReviewService(repos, store),
		popups:    services.NewPopupAdService(repos, store),
		wishlists: services.NewWishlistService(repos, store),
	}
}

func (f *fixture) product(t *testing.T, name, price string, stock int, category models.Category) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: category,
		Images:   []string{"https://img.example.com/" + name + ".png"},
		Stock:    stock,
		IsActive: true,
		VendorID: vendorActor.ID,
	}
	require.NoError(t, f.repos.Products.Create(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.repos.Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

type couponOption func(*models.Coupon)

func withLimit(n int) couponOption {
	return func(c *models.Coupon) { c.UsageLimit = &n }
}

func withMaxDiscount(v string) couponOption {
	return func(c *models.Coupon) {
		d := decimal.RequireFromString(v)
		c.MaxDiscount = &d
	}
}

func withMinPurchase(v string) couponOption {
	return func(c *models.Coupon) { c.MinPurchase = decimal.RequireFromString(v) }
}

func withCategories(categories ...models.Category) couponOption {
	return func(c *models.Coupon) { c.ApplicableCategories = categories }
}

func withWindow(from, until time.Time) couponOption {
	return func(c *models.Coupon) {
		c.ValidFrom = from
		c.ValidUntil = until
	}
}

func (f *fixture) coupon(t *testing.T, code string, kind models.DiscountType, value string, opts ...couponOption) *models.Coupon {
	t.Helper()
	now := time.Now().UTC()
	c := &models.Coupon{
		Code:          code,
		DiscountType:  kind,
		DiscountValue: decimal.RequireFromString(value),
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(24 * time.Hour),
		IsActive:      true,
		CreatedBy:     vendorActor.ID,
	}
	for _, opt := range opts {
		opt(c)
	}
	require.NoError(t, f.repos.Coupons.Create(context.Background(), c))
	return c
}

func address() models.ShippingAddress {
	return models.ShippingAddress{
		Street:  "1 Main St",
		City:    "Springfield",
		State:   "IL",
		ZipCode: "62701",
		Country: "US",
	}
}

func orderInput(lines ...services.OrderLineInput) services.CreateOrderInput {
	return services.CreateOrderInput{
		Items:           lines,
		ShippingAddress: address(),
		PaymentMethod:   models.PaymentCreditCard,
	}
}

func line(productID string, qty int) services.OrderLineInput {
	return services.OrderLineInput{ProductID: productID, Quantity: qty}
}

func money(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
