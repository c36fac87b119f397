package repositories

import (
	"context"
	"fmt"
	"sort"
	"time"

	"apexify/internal/models"

	"github.com/google/uuid"
)

// MemoryReviewRepository is an in-memory implementation of ReviewRepository.
type MemoryReviewRepository struct {
	s    *MemoryStore
	inTx bool
}

func (r *MemoryReviewRepository) Create(_ context.Context, review *models.Review) error {
	defer r.s.lock(r.inTx)()

	for _, existing := range r.s.data.reviews {
		if existing.ProductID == review.ProductID && existing.UserID == review.UserID {
			return models.ErrAlreadyReviewed
		}
	}
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now
	r.s.data.reviews[review.ID] = *review
	return nil
}

func (r *MemoryReviewRepository) GetByID(_ context.Context, id string) (*models.Review, error) {
	defer r.s.rlock(r.inTx)()

	review, ok := r.s.data.reviews[id]
	if !ok {
		return nil, notFound("review", id)
	}
	return &review, nil
}

func (r *MemoryReviewRepository) GetByProductAndUser(_ context.Context, productID, userID string) (*models.Review, error) {
	defer r.s.rlock(r.inTx)()

	for _, review := range r.s.data.reviews {
		if review.ProductID == productID && review.UserID == userID {
			return &review, nil
		}
	}
	return nil, fmt.Errorf("review for product %s by user %s %w", productID, userID, models.ErrNotFound)
}

func (r *MemoryReviewRepository) ListByProduct(_ context.Context, productID string) ([]models.Review, error) {
	defer r.s.rlock(r.inTx)()

	reviews := make([]models.Review, 0)
	for _, review := range r.s.data.reviews {
		if review.ProductID == productID {
			reviews = append(reviews, review)
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		if !reviews[i].CreatedAt.Equal(reviews[j].CreatedAt) {
			return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
		}
		return reviews[i].ID < reviews[j].ID
	})
	return reviews, nil
}

func (r *MemoryReviewRepository) Update(_ context.Context, review *models.Review) error {
	defer r.s.lock(r.inTx)()

	existing, ok := r.s.data.reviews[review.ID]
	if !ok {
		return notFound("review", review.ID)
	}
	existing.Rating = review.Rating
	existing.Comment = review.Comment
	existing.UpdatedAt = time.Now().UTC()
	r.s.data.reviews[review.ID] = existing
	return nil
}

func (r *MemoryReviewRepository) Delete(_ context.Context, id string) error {
	defer r.s.lock(r.inTx)()

	if _, ok := r.s.data.reviews[id]; !ok {
		return notFound("review", id)
	}
	delete(r.s.data.reviews, id)
	return nil
}

func (r *MemoryReviewRepository) Aggregate(_ context.Context, productID string) (float64, int, error) {
	defer r.s.rlock(r.inTx)()

	sum, count := 0, 0
	for _, review := range r.s.data.reviews {
		if review.ProductID == productID {
			sum += review.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}
