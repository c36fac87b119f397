package models

import (
	"slices"
	"time"
)

// Wishlist is the set of products a user has saved. Each user has at most one.
type Wishlist struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string    `json:"userId" gorm:"type:varchar(36);uniqueIndex"`
	ProductIDs []string  `json:"productIds" gorm:"serializer:json"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Contains reports whether productID is saved.
func (w *Wishlist) Contains(productID string) bool {
	return slices.Contains(w.ProductIDs, productID)
}

// Remove drops productID and reports whether it was present.
func (w *Wishlist) Remove(productID string) bool {
	n := len(w.ProductIDs)
	w.ProductIDs = slices.DeleteFunc(w.ProductIDs, func(id string) bool { return id == productID })
	return len(w.ProductIDs) != n
}
