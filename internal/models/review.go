package models

import (
	"math"
	"time"
)

// Review is a customer's rating of a product. One per (product, user).
type Review struct {
	ID                 string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID          string    `json:"productId" gorm:"type:varchar(36);uniqueIndex:idx_review_product_user"`
	UserID             string    `json:"userId" gorm:"type:varchar(36);uniqueIndex:idx_review_product_user"`
	Rating             int       `json:"rating" validate:"required,min=1,max=5"`
	Comment            string    `json:"comment" gorm:"type:varchar(500)" validate:"required,min=1,max=500"`
	IsVerifiedPurchase bool      `json:"isVerifiedPurchase"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// RoundRating rounds an average rating to one decimal place.
func RoundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}
