package services

import (
	"context"
	"fmt"

	"apexify/internal/logging"
	"apexify/internal/models"
	"apexify/internal/repositories"

	"go.uber.org/zap"
)

// PopupAdInput is the editable part of a popup ad.
type PopupAdInput struct {
	Title           string `json:"title" validate:"required,max=100"`
	Description     string `json:"description" validate:"required,max=500"`
	ImageURL        string `json:"imageUrl" validate:"omitempty,url"`
	LinkURL         string `json:"linkUrl"`
	ButtonText      string `json:"buttonText" validate:"max=50"`
	IsActive        bool   `json:"isActive"`
	BackgroundColor string `json:"backgroundColor"`
	TextColor       string `json:"textColor"`
	DisplayDuration int    `json:"displayDuration" validate:"gte=0"`
	DelayBeforeShow int    `json:"delayBeforeShow" validate:"gte=0"`
}

// PopupAdService administers popup ads. At most one ad is active.
type PopupAdService struct {
	repos repositories.Repositories
	tx    repositories.Transactor
}

// NewPopupAdService creates a new PopupAdService.
func NewPopupAdService(repos repositories.Repositories, tx repositories.Transactor) *PopupAdService {
	return &PopupAdService{repos: repos, tx: tx}
}

// GetActive returns the ad currently shown to visitors.
func (s *PopupAdService) GetActive(ctx context.Context) (*models.PopupAd, error) {
	return s.repos.PopupAds.GetActive(ctx)
}

// List returns every ad, newest first.
func (s *PopupAdService) List(ctx context.Context, actor models.Actor) ([]models.PopupAd, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repos.PopupAds.List(ctx)
}

// Get returns a single ad.
func (s *PopupAdService) Get(ctx context.Context, actor models.Actor, id string) (*models.PopupAd, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repos.PopupAds.GetByID(ctx, id)
}

// Create stores a new ad. Creating an active ad deactivates all others.
func (s *PopupAdService) Create(ctx context.Context, actor models.Actor, in PopupAdInput) (*models.PopupAd, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	ad := &models.PopupAd{CreatedBy: actor.ID}
	applyPopupAdInput(ad, in)

	err := s.tx.WithinTransaction(ctx, func(repos repositories.Repositories) error {
		if err := repos.PopupAds.Create(ctx, ad); err != nil {
			return err
		}
		if in.IsActive {
			return repos.PopupAds.Activate(ctx, ad.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ad.IsActive = in.IsActive
	return ad, nil
}

// Update edits an ad. Its active flag is honoured the same way as on Create.
func (s *PopupAdService) Update(ctx context.Context, actor models.Actor, id string, in PopupAdInput) (*models.PopupAd, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}

	var ad *models.PopupAd
	err := s.tx.WithinTransaction(ctx, func(repos repositories.Repositories) error {
		current, err := repos.PopupAds.GetByID(ctx, id)
		if err != nil {
			return err
		}
		applyPopupAdInput(current, in)
		if err := repos.PopupAds.Update(ctx, current); err != nil {
			return err
		}
		if err := setActive(ctx, repos.PopupAds, id, in.IsActive); err != nil {
			return err
		}
		ad, err = repos.PopupAds.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ad, nil
}

// Delete removes an ad.
func (s *PopupAdService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.repos.PopupAds.Delete(ctx, id)
}

// Toggle flips an ad's active flag. Activating it deactivates every other ad
// in the same write.
func (s *PopupAdService) Toggle(ctx context.Context, actor models.Actor, id string) (*models.PopupAd, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var ad *models.PopupAd
	err := s.tx.WithinTransaction(ctx, func(repos repositories.Repositories) error {
		current, err := repos.PopupAds.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := setActive(ctx, repos.PopupAds, id, !current.IsActive); err != nil {
			return err
		}
		ad, err = repos.PopupAds.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("popup_ad_toggled",
		zap.String("popup_ad_id", id),
		zap.Bool("active", ad.IsActive),
	)
	return ad, nil
}

func setActive(ctx context.Context, ads repositories.PopupAdRepository, id string, active bool) error {
	if active {
		return ads.Activate(ctx, id)
	}
	return ads.Deactivate(ctx, id)
}

func applyPopupAdInput(ad *models.PopupAd, in PopupAdInput) {
	ad.Title = in.Title
	ad.Description = in.Description
	ad.ImageURL = in.ImageURL
	ad.LinkURL = in.LinkURL
	ad.ButtonText = in.ButtonText
	ad.BackgroundColor = in.BackgroundColor
	ad.TextColor = in.TextColor
	ad.DisplayDuration = in.DisplayDuration
	ad.DelayBeforeShow = in.DelayBeforeShow
	ad.ApplyDefaults()
}

func requireAdmin(actor models.Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("admin role required: %w", models.ErrUnauthorized)
	}
	return nil
}
