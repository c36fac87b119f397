package handlers

import (
	"apexify/internal/middleware"
	"apexify/internal/models"
	"apexify/internal/repositories"
	"apexify/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service *services.ProductService
	auth    fiber.Handler
}

// NewProductHandler creates a new ProductHandler. auth guards the write routes.
func NewProductHandler(service *services.ProductService, auth fiber.Handler) *ProductHandler {
	return &ProductHandler{service: service, auth: auth}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/categories", h.HandleCategories)

	sellers := []fiber.Handler{h.auth, middleware.RequireRoles(models.RoleVendor, models.RoleAdmin)}
	productRoutes.Get("/vendor/mine", append(sellers, h.HandleVendorProducts)...)
	productRoutes.Post("/", append(sellers, h.HandleCreateProduct)...)
	productRoutes.Put("/:id", append(sellers, h.HandleUpdateProduct)...)
	productRoutes.Delete("/:id", append(sellers, h.HandleDeleteProduct)...)

	productRoutes.Get("/:id", h.HandleGetProduct)
}

// HandleListProducts returns a page of active products. Query parameters:
// category, minPrice, maxPrice, search, featured, vendor, sort, page, limit.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	filter, err := productFilter(c)
	if err != nil {
		return writeError(c, "Invalid query", err)
	}
	page, err := h.service.ListProducts(c.UserContext(), filter)
	if err != nil {
		return writeError(c, "Could not retrieve products", err)
	}
	return c.JSON(page)
}

func productFilter(c *fiber.Ctx) (repositories.ProductFilter, error) {
	filter := repositories.ProductFilter{
		Category: models.Category(c.Query("category")),
		Search:   c.Query("search"),
		VendorID: c.Query("vendor"),
		Sort:     repositories.ProductSort(c.Query("sort")),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 0),
	}
	for name, dst := range map[string]**decimal.Decimal{"minPrice": &filter.MinPrice, "maxPrice": &filter.MaxPrice} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, models.NewValidationError(name, "must be a number")
		}
		*dst = &v
	}
	if c.Query("featured") != "" {
		featured := c.QueryBool("featured")
		filter.Featured = &featured
	}
	return filter, nil
}

// HandleCategories lists the categories that currently have products.
func (h *ProductHandler) HandleCategories(c *fiber.Ctx) error {
	categories, err := h.service.Categories(c.UserContext())
	if err != nil {
		return writeError(c, "Could not retrieve categories", err)
	}
	return c.JSON(categories)
}

// HandleGetProduct retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, "Could not retrieve product", err)
	}
	return c.JSON(product)
}

// HandleVendorProducts lists every product owned by the calling vendor.
func (h *ProductHandler) HandleVendorProducts(c *fiber.Ctx) error {
	products, err := h.service.ListVendorProducts(c.UserContext(), actor(c).ID)
	if err != nil {
		return writeError(c, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleCreateProduct creates a product owned by the caller.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c, err)
	}
	product, err := h.service.CreateProduct(c.UserContext(), actor(c), in)
	if err != nil {
		return writeError(c, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces the editable fields of a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c, err)
	}
	product, err := h.service.UpdateProduct(c.UserContext(), actor(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, "Could not update product", err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct removes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return writeError(c, "Could not delete product", err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted successfully"})
}
