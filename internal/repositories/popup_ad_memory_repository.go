package repositories

import (
	"context"
	"fmt"
	"sort"
	"time"

	"apexify/internal/models"

	"github.com/google/uuid"
)

// MemoryPopupAdRepository is an in-memory implementation of PopupAdRepository.
type MemoryPopupAdRepository struct {
	s    *MemoryStore
	inTx bool
}

func (r *MemoryPopupAdRepository) Create(_ context.Context, ad *models.PopupAd) error {
	defer r.s.lock(r.inTx)()

	if ad.ID == "" {
		ad.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	ad.CreatedAt = now
	ad.UpdatedAt = now
	r.s.data.popupAds[ad.ID] = *ad
	return nil
}

func (r *MemoryPopupAdRepository) GetByID(_ context.Context, id string) (*models.PopupAd, error) {
	defer r.s.rlock(r.inTx)()

	ad, ok := r.s.data.popupAds[id]
	if !ok {
		return nil, notFound("popup ad", id)
	}
	return &ad, nil
}

func (r *MemoryPopupAdRepository) List(_ context.Context) ([]models.PopupAd, error) {
	defer r.s.rlock(r.inTx)()

	ads := make([]models.PopupAd, 0, len(r.s.data.popupAds))
	for _, ad := range r.s.data.popupAds {
		ads = append(ads, ad)
	}
	sort.Slice(ads, func(i, j int) bool {
		if !ads[i].CreatedAt.Equal(ads[j].CreatedAt) {
			return ads[i].CreatedAt.After(ads[j].CreatedAt)
		}
		return ads[i].ID < ads[j].ID
	})
	return ads, nil
}

func (r *MemoryPopupAdRepository) Update(_ context.Context, ad *models.PopupAd) error {
	defer r.s.lock(r.inTx)()

	existing, ok := r.s.data.popupAds[ad.ID]
	if !ok {
		return notFound("popup ad", ad.ID)
	}
	updated := *ad
	updated.IsActive = existing.IsActive
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	r.s.data.popupAds[ad.ID] = updated
	return nil
}

func (r *MemoryPopupAdRepository) Delete(_ context.Context, id string) error {
	defer r.s.lock(r.inTx)()

	if _, ok := r.s.data.popupAds[id]; !ok {
		return notFound("popup ad", id)
	}
	delete(r.s.data.popupAds, id)
	return nil
}

func (r *MemoryPopupAdRepository) Activate(_ context.Context, id string) error {
	defer r.s.lock(r.inTx)()

	if _, ok := r.s.data.popupAds[id]; !ok {
		return notFound("popup ad", id)
	}
	now := time.Now().UTC()
	for key, ad := range r.s.data.popupAds {
		active := key == id
		if ad.IsActive != active {
			ad.IsActive = active
			ad.UpdatedAt = now
			r.s.data.popupAds[key] = ad
		}
	}
	return nil
}

func (r *MemoryPopupAdRepository) Deactivate(_ context.Context, id string) error {
	defer r.s.lock(r.inTx)()

	ad, ok := r.s.data.popupAds[id]
	if !ok {
		return notFound("popup ad", id)
	}
	ad.IsActive = false
	ad.UpdatedAt = time.Now().UTC()
	r.s.data.popupAds[id] = ad
	return nil
}

func (r *MemoryPopupAdRepository) GetActive(_ context.Context) (*models.PopupAd, error) {
	defer r.s.rlock(r.inTx)()

	for _, ad := range r.s.data.popupAds {
		if ad.IsActive {
			return &ad, nil
		}
	}
	return nil, fmt.Errorf("active popup ad %w", models.ErrNotFound)
}
