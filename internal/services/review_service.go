package services

import (
	"context"
	"errors"
	"fmt"

	"apexify/internal/logging"
	"apexify/internal/models"
	"apexify/internal/repositories"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ReviewInput is the editable part of a review.
type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,min=1,max=500"`
}

// ReviewService manages product reviews and keeps the product's rating
// aggregate in step with them.
type ReviewService struct {
	repos repositories.Repositories
	tx    repositories.Transactor
}

// NewReviewService creates a new ReviewService.
func NewReviewService(repos repositories.Repositories, tx repositories.Transactor) *ReviewService {
	return &ReviewService{repos: repos, tx: tx}
}

// ListProductReviews returns a product's reviews, newest first.
func (s *ReviewService) ListProductReviews(ctx context.Context, productID string) ([]models.Review, error) {
	if _, err := s.repos.Products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.repos.Reviews.ListByProduct(ctx, productID)
}

// CreateReview adds actor's review of a product. A second review of the same
// product by the same user fails with models.ErrAlreadyReviewed.
func (s *ReviewService) CreateReview(ctx context.Context, actor models.Actor, productID string, in ReviewInput) (*models.Review, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "review.create", attribute.String("product.id", productID))
	review, err := s.createReview(ctx, actor, productID, in)
	endSpan(span, err)
	return review, err
}

func (s *ReviewService) createReview(ctx context.Context, actor models.Actor, productID string, in ReviewInput) (*models.Review, error) {
	var review *models.Review
	err := s.tx.WithinTransaction(ctx, func(repos repositories.Repositories) error {
		if _, err := repos.Products.GetByID(ctx, productID); err != nil {
			return err
		}
		verified, err := repos.Orders.HasPurchased(ctx, actor.ID, productID)
		if err != nil {
			return err
		}
		review = &models.Review{
			ProductID:          productID,
			UserID:             actor.ID,
			Rating:             in.Rating,
			Comment:            in.Comment,
			IsVerifiedPurchase: verified,
		}
		if err := repos.Reviews.Create(ctx, review); err != nil {
			return err
		}
		return calcAverageRating(ctx, repos, productID)
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("review_created",
		zap.String("review_id", review.ID),
		zap.String("product_id", productID),
		zap.Bool("verified_purchase", review.IsVerifiedPurchase),
	)
	return review, nil
}

// UpdateReview edits a review. Only its author may do so.
func (s *ReviewService) UpdateReview(ctx context.Context, actor models.Actor, id string, in ReviewInput) (*models.Review, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	var review *models.Review
	err := s.tx.WithinTransaction(ctx, func(repos repositories.Repositories) error {
		current, err := repos.Reviews.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.UserID != actor.ID {
			return fmt.Errorf("review %s: %w", id, models.ErrUnauthorized)
		}
		current.Rating = in.Rating
		current.Comment = in.Comment
		if err := repos.Reviews.Update(ctx, current); err != nil {
			return err
		}
		review = current
		return calcAverageRating(ctx, repos, current.ProductID)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview removes a review. Its author or an admin may do so.
func (s *ReviewService) DeleteReview(ctx context.Context, actor models.Actor, id string) error {
	return s.tx.WithinTransaction(ctx, func(repos repositories.Repositories) error {
		review, err := repos.Reviews.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if review.UserID != actor.ID && !actor.IsAdmin() {
			return fmt.Errorf("review %s: %w", id, models.ErrUnauthorized)
		}
		if err := repos.Reviews.Delete(ctx, id); err != nil {
			return err
		}
		return calcAverageRating(ctx, repos, review.ProductID)
	})
}

// CalcAverageRating recomputes a product's average rating (one decimal) and
// review count from its current reviews. Both are zero when none remain.
func (s *ReviewService) CalcAverageRating(ctx context.Context, productID string) error {
	return calcAverageRating(ctx, s.repos, productID)
}

func calcAverageRating(ctx context.Context, repos repositories.Repositories, productID string) error {
	avg, count, err := repos.Reviews.Aggregate(ctx, productID)
	if err != nil {
		return fmt.Errorf("aggregate reviews of %s: %w", productID, err)
	}
	err = repos.Products.UpdateRating(ctx, productID, models.RoundRating(avg), count)
	if errors.Is(err, models.ErrNotFound) {
		// Reviews can outlive their product.
		logging.FromContext(ctx).Warn("rating_target_missing", zap.String("product_id", productID))
		return nil
	}
	return err
}
