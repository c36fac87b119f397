package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is the closed set of catalog categories.
type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
	CategoryHomeGarden  Category = "Home & Garden"
	CategorySports      Category = "Sports"
	CategoryBooks       Category = "Books"
	CategoryToys        Category = "Toys"
	CategoryFood        Category = "Food"
	CategoryBeauty      Category = "Beauty"
	CategoryOther       Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryElectronics, CategoryClothing, CategoryHomeGarden, CategorySports,
	CategoryBooks, CategoryToys, CategoryFood, CategoryBeauty, CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product represents an item listed by a vendor.
type Product struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string          `json:"name" gorm:"type:varchar(200);not null" validate:"required,min=3,max=200"`
	Description   string          `json:"description" gorm:"type:text" validate:"max=2000"`
	Price         decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	Category      Category        `json:"category" gorm:"type:varchar(50);index" validate:"required"`
	Images        []string        `json:"images" gorm:"serializer:json"`
	Tags          []string        `json:"tags" gorm:"serializer:json"`
	Stock         int             `json:"stock" gorm:"not null;default:0" validate:"gte=0"`
	AverageRating float64         `json:"averageRating" gorm:"default:0"`
	NumReviews    int             `json:"numReviews" gorm:"default:0"`
	IsActive      bool            `json:"isActive" gorm:"index"`
	Featured      bool            `json:"featured"`
	VendorID      string          `json:"vendorId" gorm:"type:varchar(36);index"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Validate checks the fields validator tags cannot express.
func (p *Product) Validate() error {
	if !p.Category.Valid() {
		return NewValidationError("category", "unknown category "+string(p.Category))
	}
	if p.Price.IsNegative() {
		return NewValidationError("price", "price cannot be negative")
	}
	return nil
}

// FirstImage returns the primary image URL, or "" when there is none.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
