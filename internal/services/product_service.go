package services

import (
	"context"
	"fmt"

	"apexify/internal/models"
	"apexify/internal/repositories"

	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 12
	maxPageSize     = 100
)

// ProductInput is the editable part of a product.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,min=3,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price"`
	Category    models.Category `json:"category" validate:"required"`
	Images      []string        `json:"images" validate:"dive,required"`
	Tags        []string        `json:"tags"`
	Stock       int             `json:"stock" validate:"gte=0"`
	IsActive    *bool           `json:"isActive"`
	Featured    bool            `json:"featured"`
}

// ProductPage is one page of a catalog listing.
type ProductPage struct {
	Products   []models.Product `json:"products"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
	TotalCount int64            `json:"totalProducts"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListProducts returns a page of active products matching filter.
func (s *ProductService) ListProducts(ctx context.Context, filter repositories.ProductFilter) (*ProductPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageSize
	}
	filter.Limit = min(filter.Limit, maxPageSize)
	filter.OnlyActive = true

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ProductPage{
		Products:   products,
		Page:       filter.Page,
		TotalPages: int((total + int64(filter.Limit) - 1) / int64(filter.Limit)),
		TotalCount: total,
	}, nil
}

// ListVendorProducts returns every product of a vendor, active or not.
func (s *ProductService) ListVendorProducts(ctx context.Context, vendorID string) ([]models.Product, error) {
	products, _, err := s.repo.List(ctx, repositories.ProductFilter{VendorID: vendorID})
	return products, err
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Categories lists the categories that currently have active products.
func (s *ProductService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.repo.Categories(ctx)
}

// CreateProduct lists a new product owned by the calling vendor. Only admins
// may feature a product.
func (s *ProductService) CreateProduct(ctx context.Context, actor models.Actor, in ProductInput) (*models.Product, error) {
	if !actor.IsVendor() && !actor.IsAdmin() {
		return nil, fmt.Errorf("only vendors can list products: %w", models.ErrUnauthorized)
	}
	product := &models.Product{VendorID: actor.ID, IsActive: true}
	if err := s.apply(actor, product, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct edits a product owned by the caller, or any product for admins.
func (s *ProductService) UpdateProduct(ctx context.Context, actor models.Actor, id string, in ProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageProduct(actor, product) {
		return nil, fmt.Errorf("product %s: %w", id, models.ErrUnauthorized)
	}
	if err := s.apply(actor, product, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct deletes a product owned by the caller, or any product for admins.
func (s *ProductService) DeleteProduct(ctx context.Context, actor models.Actor, id string) error {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canManageProduct(actor, product) {
		return fmt.Errorf("product %s: %w", id, models.ErrUnauthorized)
	}
	return s.repo.Delete(ctx, id)
}

func canManageProduct(actor models.Actor, p *models.Product) bool {
	return actor.IsAdmin() || (actor.IsVendor() && p.VendorID == actor.ID)
}

func (s *ProductService) apply(actor models.Actor, p *models.Product, in ProductInput) error {
	if err := ValidateStruct(in); err != nil {
		return err
	}
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Category = in.Category
	p.Images = in.Images
	p.Tags = in.Tags
	p.Stock = in.Stock
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if actor.IsAdmin() {
		p.Featured = in.Featured
	}
	return p.Validate()
}
