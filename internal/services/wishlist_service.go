package services

import (
	"context"
	"errors"
	"time"

	"apexify/internal/logging"
	"apexify/internal/models"
	"apexify/internal/repositories"

	"go.uber.org/zap"
)

// WishlistView is a wishlist with its saved products resolved.
type WishlistView struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Products  []models.Product `json:"products"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// WishlistService manages each user's saved products.
type WishlistService struct {
	repos repositories.Repositories
	tx    repositories.Transactor
}

// NewWishlistService creates a new WishlistService.
func NewWishlistService(repos repositories.Repositories, tx repositories.Transactor) *WishlistService {
	return &WishlistService{repos: repos, tx: tx}
}

// Get returns actor's wishlist, creating an empty one on first use.
func (s *WishlistService) Get(ctx context.Context, actor models.Actor) (*WishlistView, error) {
	wishlist, err := getOrCreateWishlist(ctx, s.repos, actor.ID)
	if errors.Is(err, models.ErrConflict) {
		// Lost the creation race to a concurrent request.
		wishlist, err = s.repos.Wishlists.GetByUser(ctx, actor.ID)
	}
	if err != nil {
		return nil, err
	}
	return s.view(ctx, wishlist)
}

// Add saves a product. Saving one that is already present is a validation error.
func (s *WishlistService) Add(ctx context.Context, actor models.Actor, productID string) (*WishlistView, error) {
	var wishlist *models.Wishlist
	err := s.tx.WithinTransaction(ctx, func(repos repositories.Repositories) error {
		if _, err := repos.Products.GetByID(ctx, productID); err != nil {
			return err
		}
		var err error
		wishlist, err = getOrCreateWishlist(ctx, repos, actor.ID)
		if err != nil {
			return err
		}
		if wishlist.Contains(productID) {
			return models.NewValidationError("productId", "product already in wishlist")
		}
		wishlist.ProductIDs = append(wishlist.ProductIDs, productID)
		return repos.Wishlists.SaveProducts(ctx, wishlist)
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("wishlist_product_added",
		zap.String("user_id", actor.ID),
		zap.String("product_id", productID),
	)
	return s.view(ctx, wishlist)
}

// Remove drops a product. Removing one that is not saved leaves the wishlist
// unchanged; a user without a wishlist gets models.ErrNotFound.
func (s *WishlistService) Remove(ctx context.Context, actor models.Actor, productID string) (*WishlistView, error) {
	var wishlist *models.Wishlist
	err := s.tx.WithinTransaction(ctx, func(repos repositories.Repositories) error {
		var err error
		wishlist, err = repos.Wishlists.GetByUser(ctx, actor.ID)
		if err != nil {
			return err
		}
		if !wishlist.Remove(productID) {
			return nil
		}
		return repos.Wishlists.SaveProducts(ctx, wishlist)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, wishlist)
}

// Clear empties actor's wishlist.
func (s *WishlistService) Clear(ctx context.Context, actor models.Actor) (*WishlistView, error) {
	wishlist, err := s.repos.Wishlists.GetByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	wishlist.ProductIDs = []string{}
	if err := s.repos.Wishlists.SaveProducts(ctx, wishlist); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("wishlist_cleared", zap.String("user_id", actor.ID))
	return s.view(ctx, wishlist)
}

func getOrCreateWishlist(ctx context.Context, repos repositories.Repositories, userID string) (*models.Wishlist, error) {
	wishlist, err := repos.Wishlists.GetByUser(ctx, userID)
	if !errors.Is(err, models.ErrNotFound) {
		return wishlist, err
	}
	wishlist = &models.Wishlist{UserID: userID, ProductIDs: []string{}}
	if err := repos.Wishlists.Create(ctx, wishlist); err != nil {
		return nil, err
	}
	return wishlist, nil
}

// view resolves saved product IDs. Products deleted since they were saved
// are left out.
func (s *WishlistService) view(ctx context.Context, wishlist *models.Wishlist) (*WishlistView, error) {
	products := make([]models.Product, 0, len(wishlist.ProductIDs))
	for _, id := range wishlist.ProductIDs {
		p, err := s.repos.Products.GetByID(ctx, id)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return &WishlistView{
		ID:        wishlist.ID,
		UserID:    wishlist.UserID,
		Products:  products,
		UpdatedAt: wishlist.UpdatedAt,
	}, nil
}
