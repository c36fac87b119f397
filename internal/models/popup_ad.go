package models

import "time"

// PopupAd is a promotional overlay. At most one is active at a time.
type PopupAd struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title           string    `json:"title" gorm:"type:varchar(100)" validate:"required,max=100"`
	Description     string    `json:"description" gorm:"type:varchar(500)" validate:"required,max=500"`
	ImageURL        string    `json:"imageUrl" validate:"omitempty,url"`
	LinkURL         string    `json:"linkUrl"`
	ButtonText      string    `json:"buttonText" gorm:"type:varchar(50)" validate:"max=50"`
	IsActive        bool      `json:"isActive" gorm:"index"`
	BackgroundColor string    `json:"backgroundColor" gorm:"type:varchar(20)"`
	TextColor       string    `json:"textColor" gorm:"type:varchar(20)"`
	DisplayDuration int       `json:"displayDuration" validate:"gte=0"` // milliseconds
	DelayBeforeShow int       `json:"delayBeforeShow" validate:"gte=0"`
	CreatedBy       string    `json:"createdBy" gorm:"type:varchar(36)"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ApplyDefaults fills presentation fields left empty by the caller.
func (p *PopupAd) ApplyDefaults() {
	if p.LinkURL == "" {
		p.LinkURL = "/products"
	}
	if p.ButtonText == "" {
		p.ButtonText = "Shop Now"
	}
	if p.BackgroundColor == "" {
		p.BackgroundColor = "#f97316"
	}
	if p.TextColor == "" {
		p.TextColor = "#ffffff"
	}
	if p.DisplayDuration == 0 {
		p.DisplayDuration = 5000
	}
	if p.DelayBeforeShow == 0 {
		p.DelayBeforeShow = 3000
	}
}
