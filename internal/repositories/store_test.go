package repositories_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"apexify/internal/models"
	"apexify/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forEachStore runs fn against a fresh GORM (in-memory SQLite) store and a
// fresh MemoryStore.
func forEachStore(t *testing.T, fn func(t *testing.T, store repositories.Store)) {
	t.Helper()
	t.Run("gorm", func(t *testing.T) {
		dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
		db, err := repositories.OpenDatabase("sqlite", dsn, nil)
		require.NoError(t, err)
		store := repositories.NewGORMStore(db)
		t.Cleanup(func() { _ = store.Close() })
		fn(t, store)
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, repositories.NewMemoryStore())
	})
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedProduct(t *testing.T, repo repositories.ProductRepository, p models.Product) *models.Product {
	t.Helper()
	if p.Category == "" {
		p.Category = models.CategoryOther
	}
	p.IsActive = true
	require.NoError(t, repo.Create(context.Background(), &p))
	return &p
}

func TestProductListFilters(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		products := store.Repositories().Products

		seedProduct(t, products, models.Product{Name: "Desk Lamp", Price: money("25.50"), Stock: 3, Category: models.CategoryHomeGarden, Tags: []string{"lighting"}})
		seedProduct(t, products, models.Product{Name: "Headphones", Price: money("120"), Stock: 8, Category: models.CategoryElectronics, Featured: true})
		seedProduct(t, products, models.Product{Name: "Go Programming", Description: "A book about Go", Price: money("45"), Stock: 10, Category: models.CategoryBooks})
		hidden := seedProduct(t, products, models.Product{Name: "Retired Gadget", Price: money("10"), Category: models.CategoryElectronics})
		hidden.IsActive = false
		require.NoError(t, products.Update(ctx, hidden))

		all, total, err := products.List(ctx, repositories.ProductFilter{OnlyActive: true, Sort: repositories.SortPriceAsc})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, all, 3)
		assert.Equal(t, "Desk Lamp", all[0].Name)
		assert.Equal(t, "Headphones", all[2].Name)

		byCategory, _, err := products.List(ctx, repositories.ProductFilter{OnlyActive: true, Category: models.CategoryElectronics})
		require.NoError(t, err)
		require.Len(t, byCategory, 1)
		assert.Equal(t, "Headphones", byCategory[0].Name)

		minPrice, maxPrice := money("20"), money("50")
		inRange, _, err := products.List(ctx, repositories.ProductFilter{OnlyActive: true, MinPrice: &minPrice, MaxPrice: &maxPrice})
		require.NoError(t, err)
		assert.Len(t, inRange, 2)

		byTag, _, err := products.List(ctx, repositories.ProductFilter{OnlyActive: true, Search: "LIGHT"})
		require.NoError(t, err)
		require.Len(t, byTag, 1)
		assert.Equal(t, "Desk Lamp", byTag[0].Name)

		byDescription, _, err := products.List(ctx, repositories.ProductFilter{OnlyActive: true, Search: "book about"})
		require.NoError(t, err)
		assert.Len(t, byDescription, 1)

		featured := true
		onlyFeatured, _, err := products.List(ctx, repositories.ProductFilter{OnlyActive: true, Featured: &featured})
		require.NoError(t, err)
		assert.Len(t, onlyFeatured, 1)

		page2, total, err := products.List(ctx, repositories.ProductFilter{OnlyActive: true, Sort: repositories.SortPriceAsc, Page: 2, Limit: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, page2, 1)
		assert.Equal(t, "Headphones", page2[0].Name)

		categories, err := products.Categories(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []models.Category{models.CategoryHomeGarden, models.CategoryElectronics, models.CategoryBooks}, categories)
	})
}

func TestProductCRUD(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		products := store.Repositories().Products

		p := seedProduct(t, products, models.Product{Name: "Kettle", Price: money("30"), Stock: 4, VendorID: "vendor-1"})
		require.NotEmpty(t, p.ID)

		p.Name = "Electric Kettle"
		p.Price = money("32.99")
		require.NoError(t, products.Update(ctx, p))

		got, err := products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Electric Kettle", got.Name)
		assert.True(t, money("32.99").Equal(got.Price))
		assert.Equal(t, "vendor-1", got.VendorID)

		require.NoError(t, products.UpdateRating(ctx, p.ID, 4.5, 2))
		got, err = products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 4.5, got.AverageRating)
		assert.Equal(t, 2, got.NumReviews)

		require.NoError(t, products.Delete(ctx, p.ID))
		_, err = products.GetByID(ctx, p.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.ErrorIs(t, products.Delete(ctx, p.ID), models.ErrNotFound)

		missing := &models.Product{ID: "missing", Name: "Nope", Category: models.CategoryOther}
		assert.ErrorIs(t, products.Update(ctx, missing), models.ErrNotFound)
	})
}

func TestDecrementStock(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		products := store.Repositories().Products
		p := seedProduct(t, products, models.Product{Name: "Mug", Price: money("8"), Stock: 3})

		require.NoError(t, products.DecrementStock(ctx, p.ID, 2))

		err := products.DecrementStock(ctx, p.ID, 2)
		var stockErr *models.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, 1, stockErr.Available)
		assert.Equal(t, 2, stockErr.Requested)
		assert.ErrorIs(t, err, models.ErrInsufficientStock)

		assert.ErrorIs(t, products.DecrementStock(ctx, "missing", 1), models.ErrNotFound)

		require.NoError(t, products.IncrementStock(ctx, p.ID, 4))
		got, err := products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Stock)
	})
}

func TestConcurrentDecrementNeverOversells(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		products := store.Repositories().Products
		p := seedProduct(t, products, models.Product{Name: "Limited Print", Price: money("99"), Stock: 5})

		var wg sync.WaitGroup
		var successes, failures atomic.Int32
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := store.WithinTransaction(ctx, func(repos repositories.Repositories) error {
					return repos.Products.DecrementStock(ctx, p.ID, 1)
				})
				if err == nil {
					successes.Add(1)
				} else if errors.Is(err, models.ErrInsufficientStock) {
					failures.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 5, successes.Load())
		assert.EqualValues(t, 15, failures.Load())
		got, err := products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Stock)
	})
}

func TestTransactionRollsBackEveryWrite(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		products := store.Repositories().Products
		first := seedProduct(t, products, models.Product{Name: "First", Price: money("10"), Stock: 5})
		second := seedProduct(t, products, models.Product{Name: "Second", Price: money("10"), Stock: 1})

		err := store.WithinTransaction(ctx, func(repos repositories.Repositories) error {
			if err := repos.Products.DecrementStock(ctx, first.ID, 2); err != nil {
				return err
			}
			return repos.Products.DecrementStock(ctx, second.ID, 3)
		})
		require.ErrorIs(t, err, models.ErrInsufficientStock)

		got, err := products.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Stock)
	})
}

func newCoupon(code string, limit *int) *models.Coupon {
	now := time.Now().UTC()
	return &models.Coupon{
		Code:          code,
		DiscountType:  models.DiscountPercentage,
		DiscountValue: money("10"),
		UsageLimit:    limit,
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(time.Hour),
		IsActive:      true,
		CreatedBy:     "vendor-1",
	}
}

func TestCouponRedeem(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		coupons := store.Repositories().Coupons
		limit := 2
		c := newCoupon("TWICE", &limit)
		require.NoError(t, coupons.Create(ctx, c))

		require.NoError(t, coupons.Redeem(ctx, c.ID, "user-1", time.Now()))
		assert.ErrorIs(t, coupons.Redeem(ctx, c.ID, "user-1", time.Now()), models.ErrCouponAlreadyUsed)
		require.NoError(t, coupons.Redeem(ctx, c.ID, "user-2", time.Now()))
		assert.ErrorIs(t, coupons.Redeem(ctx, c.ID, "user-3", time.Now()), models.ErrCouponLimitReached)

		used, err := coupons.HasUsage(ctx, c.ID, "user-3")
		require.NoError(t, err)
		assert.False(t, used, "a rejected redemption leaves no usage row")

		got, err := coupons.GetByCode(ctx, "TWICE")
		require.NoError(t, err)
		assert.Equal(t, 2, got.UsedCount)
		assert.Len(t, got.UsedBy, 2)

		dup := newCoupon("TWICE", nil)
		assert.ErrorIs(t, coupons.Create(ctx, dup), models.ErrConflict)

		_, err = coupons.GetByCode(ctx, "NOPE")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestConcurrentRedeemRespectsLimit(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		coupons := store.Repositories().Coupons
		limit := 3
		c := newCoupon("THREE", &limit)
		require.NoError(t, coupons.Create(ctx, c))

		var wg sync.WaitGroup
		var successes, limited atomic.Int32
		for i := 0; i < 12; i++ {
			wg.Add(1)
			go func(user string) {
				defer wg.Done()
				err := store.WithinTransaction(ctx, func(repos repositories.Repositories) error {
					return repos.Coupons.Redeem(ctx, c.ID, user, time.Now())
				})
				switch {
				case err == nil:
					successes.Add(1)
				case errors.Is(err, models.ErrCouponLimitReached):
					limited.Add(1)
				}
			}(fmt.Sprintf("user-%d", i))
		}
		wg.Wait()

		assert.EqualValues(t, 3, successes.Load())
		assert.EqualValues(t, 9, limited.Load())
		got, err := coupons.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.UsedCount)
	})
}

func TestCouponListAndDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		coupons := store.Repositories().Coupons
		mine := newCoupon("MINE", nil)
		theirs := newCoupon("THEIRS", nil)
		theirs.CreatedBy = "vendor-2"
		require.NoError(t, coupons.Create(ctx, mine))
		require.NoError(t, coupons.Create(ctx, theirs))

		all, err := coupons.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 2)

		own, err := coupons.List(ctx, "vendor-1")
		require.NoError(t, err)
		require.Len(t, own, 1)
		assert.Equal(t, "MINE", own[0].Code)

		mine.Description = "updated"
		require.NoError(t, coupons.Update(ctx, mine))
		got, err := coupons.GetByID(ctx, mine.ID)
		require.NoError(t, err)
		assert.Equal(t, "updated", got.Description)

		require.NoError(t, coupons.Delete(ctx, mine.ID))
		assert.ErrorIs(t, coupons.Delete(ctx, mine.ID), models.ErrNotFound)
	})
}

func newOrder(number, customer string, items ...models.OrderItem) *models.Order {
	return &models.Order{
		OrderNumber:   number,
		CustomerID:    customer,
		Items:         items,
		PaymentMethod: models.PaymentStripe,
		PaymentStatus: models.PaymentPending,
		OrderStatus:   models.OrderPending,
		ItemsPrice:    money("10"),
		TotalPrice:    money("21"),
		ShippingAddress: models.ShippingAddress{
			Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701", Country: "US",
		},
	}
}

func TestOrderLifecycle(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		orders := store.Repositories().Orders

		o := newOrder("ORD-1", "cust-1",
			models.OrderItem{ProductID: "p1", Name: "Lamp", Price: money("10"), Quantity: 1, VendorID: "vend-1"},
			models.OrderItem{ProductID: "p2", Name: "Mug", Price: money("5"), Quantity: 2, VendorID: "vend-2"},
		)
		require.NoError(t, orders.Create(ctx, o))
		assert.ErrorIs(t, orders.Create(ctx, newOrder("ORD-1", "cust-2")), models.ErrConflict)

		got, err := orders.GetByID(ctx, o.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 2)
		assert.Equal(t, "p1", got.Items[0].ProductID)
		assert.Equal(t, "Springfield", got.ShippingAddress.City)

		exists, err := orders.ExistsByOrderNumber(ctx, "ORD-1")
		require.NoError(t, err)
		assert.True(t, exists)

		byVendor, err := orders.ListByVendor(ctx, "vend-2")
		require.NoError(t, err)
		assert.Len(t, byVendor, 1)
		none, err := orders.ListByVendor(ctx, "vend-3")
		require.NoError(t, err)
		assert.Empty(t, none)

		byCustomer, err := orders.ListByCustomer(ctx, "cust-1")
		require.NoError(t, err)
		assert.Len(t, byCustomer, 1)

		purchased, err := orders.HasPurchased(ctx, "cust-1", "p1")
		require.NoError(t, err)
		assert.False(t, purchased, "pending orders do not count")

		require.NoError(t, orders.UpdateStatus(ctx, o.ID, models.OrderPending, models.OrderProcessing, nil))
		err = orders.UpdateStatus(ctx, o.ID, models.OrderPending, models.OrderShipped, nil)
		assert.ErrorIs(t, err, models.ErrInvalidTransition, "stale from-state is rejected")

		purchased, err = orders.HasPurchased(ctx, "cust-1", "p1")
		require.NoError(t, err)
		assert.True(t, purchased)

		delivered := time.Now().UTC()
		require.NoError(t, orders.UpdateStatus(ctx, o.ID, models.OrderProcessing, models.OrderDelivered, &delivered))
		require.NoError(t, orders.ConfirmPayment(ctx, o.ID, "pi_123"))

		got, err = orders.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderDelivered, got.OrderStatus)
		assert.NotNil(t, got.DeliveredAt)
		assert.Equal(t, models.PaymentCompleted, got.PaymentStatus)
		assert.Equal(t, "pi_123", got.PaymentIntentID)

		assert.ErrorIs(t, orders.ConfirmPayment(ctx, "missing", "pi"), models.ErrNotFound)
	})
}

func TestConfirmPaymentRejectsCancelledOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		orders := store.Repositories().Orders

		o := newOrder("ORD-9", "cust-1",
			models.OrderItem{ProductID: "p1", Name: "Lamp", Price: money("10"), Quantity: 1, VendorID: "vend-1"})
		require.NoError(t, orders.Create(ctx, o))
		require.NoError(t, orders.UpdateStatus(ctx, o.ID, models.OrderPending, models.OrderCancelled, nil))

		err := orders.ConfirmPayment(ctx, o.ID, "pi_late")
		assert.ErrorIs(t, err, models.ErrInvalidTransition)

		got, err := orders.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPending, got.PaymentStatus)
		assert.Empty(t, got.PaymentIntentID)
	})
}

func TestReviewUniquenessAndAggregate(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		reviews := store.Repositories().Reviews

		avg, count, err := reviews.Aggregate(ctx, "p1")
		require.NoError(t, err)
		assert.Zero(t, avg)
		assert.Zero(t, count)

		first := &models.Review{ProductID: "p1", UserID: "u1", Rating: 5, Comment: "great"}
		require.NoError(t, reviews.Create(ctx, first))
		require.NoError(t, reviews.Create(ctx, &models.Review{ProductID: "p1", UserID: "u2", Rating: 4, Comment: "good"}))
		require.NoError(t, reviews.Create(ctx, &models.Review{ProductID: "p1", UserID: "u3", Rating: 4, Comment: "fine"}))
		assert.ErrorIs(t, reviews.Create(ctx, &models.Review{ProductID: "p1", UserID: "u1", Rating: 1, Comment: "again"}), models.ErrConflict)

		avg, count, err = reviews.Aggregate(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 3, count)
		assert.InDelta(t, 13.0/3.0, avg, 1e-9)

		first.Rating = 2
		require.NoError(t, reviews.Update(ctx, first))
		got, err := reviews.GetByProductAndUser(ctx, "p1", "u1")
		require.NoError(t, err)
		assert.Equal(t, 2, got.Rating)

		list, err := reviews.ListByProduct(ctx, "p1")
		require.NoError(t, err)
		assert.Len(t, list, 3)

		require.NoError(t, reviews.Delete(ctx, first.ID))
		_, err = reviews.GetByID(ctx, first.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestPopupAdActivateIsExclusive(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		ads := store.Repositories().PopupAds

		a := &models.PopupAd{Title: "Summer", Description: "Summer sale"}
		b := &models.PopupAd{Title: "Winter", Description: "Winter sale"}
		require.NoError(t, ads.Create(ctx, a))
		require.NoError(t, ads.Create(ctx, b))

		_, err := ads.GetActive(ctx)
		assert.ErrorIs(t, err, models.ErrNotFound)

		require.NoError(t, ads.Activate(ctx, a.ID))
		require.NoError(t, ads.Activate(ctx, b.ID))

		all, err := ads.List(ctx)
		require.NoError(t, err)
		active := 0
		for _, ad := range all {
			if ad.IsActive {
				active++
				assert.Equal(t, b.ID, ad.ID)
			}
		}
		assert.Equal(t, 1, active)

		got, err := ads.GetActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)

		require.NoError(t, ads.Deactivate(ctx, b.ID))
		_, err = ads.GetActive(ctx)
		assert.ErrorIs(t, err, models.ErrNotFound)

		assert.ErrorIs(t, ads.Activate(ctx, "missing"), models.ErrNotFound)
	})
}

func TestUserRepository(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		users := store.Repositories().Users

		u := &models.User{Username: "alice", Email: "alice@example.com", Password: "hash", Role: models.RoleVendor}
		require.NoError(t, users.Create(ctx, u))
		require.NotEmpty(t, u.ID)

		assert.ErrorIs(t, users.Create(ctx, &models.User{Username: "alice", Email: "other@example.com"}), models.ErrConflict)

		byName, err := users.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, models.RoleVendor, byName.Role)

		byEmail, err := users.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)

		_, err = users.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestWishlistRepository(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		wishlists := store.Repositories().Wishlists

		_, err := wishlists.GetByUser(ctx, "user-1")
		assert.ErrorIs(t, err, models.ErrNotFound)

		w := &models.Wishlist{UserID: "user-1"}
		require.NoError(t, wishlists.Create(ctx, w))
		assert.NotEmpty(t, w.ID)
		assert.ErrorIs(t, wishlists.Create(ctx, &models.Wishlist{UserID: "user-1"}), models.ErrConflict)

		w.ProductIDs = []string{"p1", "p2"}
		require.NoError(t, wishlists.SaveProducts(ctx, w))

		got, err := wishlists.GetByUser(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, w.ID, got.ID)
		assert.Equal(t, []string{"p1", "p2"}, got.ProductIDs)

		got.ProductIDs = []string{}
		require.NoError(t, wishlists.SaveProducts(ctx, got))
		got, err = wishlists.GetByUser(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, got.ProductIDs)

		assert.ErrorIs(t, wishlists.SaveProducts(ctx, &models.Wishlist{ID: "missing", UserID: "user-2"}), models.ErrNotFound)
	})
}
