package repositories

import (
	"context"
	"sort"
	"strings"
	"time"

	"apexify/internal/models"

	"github.com/google/uuid"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
type MemoryProductRepository struct {
	s    *MemoryStore
	inTx bool
}

func (r *MemoryProductRepository) List(_ context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	defer r.s.rlock(r.inTx)()

	matched := make([]models.Product, 0, len(r.s.data.products))
	for _, p := range r.s.data.products {
		if productMatches(p, filter) {
			matched = append(matched, cloneProduct(p))
		}
	}
	sortProducts(matched, filter.Sort)

	total := int64(len(matched))
	if filter.Limit > 0 {
		start := min(filter.Offset(), len(matched))
		end := min(start+filter.Limit, len(matched))
		matched = matched[start:end]
	}
	return matched, total, nil
}

func productMatches(p models.Product, f ProductFilter) bool {
	if f.OnlyActive && !p.IsActive {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.VendorID != "" && p.VendorID != f.VendorID {
		return false
	}
	if f.Featured != nil && p.Featured != *f.Featured {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		haystack := []string{p.Name, p.Description, string(p.Category)}
		haystack = append(haystack, p.Tags...)
		for _, field := range haystack {
			if strings.Contains(strings.ToLower(field), search) {
				return true
			}
		}
		return false
	}
	return true
}

func sortProducts(products []models.Product, by ProductSort) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		switch by {
		case SortPriceAsc:
			if !a.Price.Equal(b.Price) {
				return a.Price.LessThan(b.Price)
			}
		case SortPriceDesc:
			if !a.Price.Equal(b.Price) {
				return a.Price.GreaterThan(b.Price)
			}
		case SortRating:
			if a.AverageRating != b.AverageRating {
				return a.AverageRating > b.AverageRating
			}
		case SortName:
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
}

func (r *MemoryProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	defer r.s.rlock(r.inTx)()

	product, ok := r.s.data.products[id]
	if !ok {
		return nil, notFound("product", id)
	}
	product = cloneProduct(product)
	return &product, nil
}

func (r *MemoryProductRepository) Create(_ context.Context, product *models.Product) error {
	defer r.s.lock(r.inTx)()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.s.data.products[product.ID] = cloneProduct(*product)
	return nil
}

func (r *MemoryProductRepository) Update(_ context.Context, product *models.Product) error {
	defer r.s.lock(r.inTx)()

	existing, ok := r.s.data.products[product.ID]
	if !ok {
		return notFound("product", product.ID)
	}
	updated := cloneProduct(*product)
	updated.VendorID = existing.VendorID
	updated.AverageRating = existing.AverageRating
	updated.NumReviews = existing.NumReviews
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	r.s.data.products[product.ID] = updated
	return nil
}

func (r *MemoryProductRepository) Delete(_ context.Context, id string) error {
	defer r.s.lock(r.inTx)()

	if _, ok := r.s.data.products[id]; !ok {
		return notFound("product", id)
	}
	delete(r.s.data.products, id)
	return nil
}

func (r *MemoryProductRepository) DecrementStock(_ context.Context, id string, qty int) error {
	defer r.s.lock(r.inTx)()

	product, ok := r.s.data.products[id]
	if !ok {
		return notFound("product", id)
	}
	if product.Stock < qty {
		return &models.InsufficientStockError{
			ProductID:   id,
			ProductName: product.Name,
			Requested:   qty,
			Available:   product.Stock,
		}
	}
	product.Stock -= qty
	r.s.data.products[id] = product
	return nil
}

func (r *MemoryProductRepository) IncrementStock(_ context.Context, id string, qty int) error {
	defer r.s.lock(r.inTx)()

	product, ok := r.s.data.products[id]
	if !ok {
		return notFound("product", id)
	}
	product.Stock += qty
	r.s.data.products[id] = product
	return nil
}

func (r *MemoryProductRepository) UpdateRating(_ context.Context, id string, average float64, count int) error {
	defer r.s.lock(r.inTx)()

	product, ok := r.s.data.products[id]
	if !ok {
		return notFound("product", id)
	}
	product.AverageRating = average
	product.NumReviews = count
	r.s.data.products[id] = product
	return nil
}

func (r *MemoryProductRepository) Categories(_ context.Context) ([]models.Category, error) {
	defer r.s.rlock(r.inTx)()

	seen := make(map[models.Category]bool)
	var categories []models.Category
	for _, p := range r.s.data.products {
		if p.IsActive && !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	return categories, nil
}
