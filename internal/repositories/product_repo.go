package repositories

import (
	"context"

	"apexify/internal/models"

	"github.com/shopspring/decimal"
)

// ProductSort names the supported catalog orderings.
type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortRating    ProductSort = "rating"
	SortName      ProductSort = "name"
)

// ProductFilter narrows a catalog listing. Zero values mean "no constraint".
type ProductFilter struct {
	Category   models.Category
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Search     string
	Featured   *bool
	VendorID   string
	OnlyActive bool
	Sort       ProductSort
	Page       int
	Limit      int
}

// Offset is the number of rows skipped for the requested page.
func (f ProductFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	// DecrementStock reserves qty units, failing without side effects when
	// fewer than qty remain.
	DecrementStock(ctx context.Context, id string, qty int) error
	IncrementStock(ctx context.Context, id string, qty int) error
	UpdateRating(ctx context.Context, id string, average float64, count int) error
	Categories(ctx context.Context) ([]models.Category, error)
}
