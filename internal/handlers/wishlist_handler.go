package handlers

import (
	"apexify/internal/services"

	"github.com/gofiber/fiber/v2"
)

// WishlistHandler handles HTTP requests for the caller's wishlist.
type WishlistHandler struct {
	service *services.WishlistService
	auth    fiber.Handler
}

// NewWishlistHandler creates a new WishlistHandler. Every route requires auth.
func NewWishlistHandler(service *services.WishlistService, auth fiber.Handler) *WishlistHandler {
	return &WishlistHandler{service: service, auth: auth}
}

// RegisterRoutes registers the wishlist routes with the Fiber app.
func (h *WishlistHandler) RegisterRoutes(router fiber.Router) {
	wishlist := router.Group("/wishlist", h.auth)
	wishlist.Get("/", h.HandleGet)
	wishlist.Delete("/", h.HandleClear)
	wishlist.Post("/:productId", h.HandleAdd)
	wishlist.Delete("/:productId", h.HandleRemove)
}

func (h *WishlistHandler) HandleGet(c *fiber.Ctx) error {
	wishlist, err := h.service.Get(c.UserContext(), actor(c))
	if err != nil {
		return writeError(c, "Could not retrieve wishlist", err)
	}
	return c.JSON(fiber.Map{"wishlist": wishlist})
}

func (h *WishlistHandler) HandleAdd(c *fiber.Ctx) error {
	wishlist, err := h.service.Add(c.UserContext(), actor(c), c.Params("productId"))
	if err != nil {
		return writeError(c, "Could not add product to wishlist", err)
	}
	return c.JSON(fiber.Map{"wishlist": wishlist})
}

func (h *WishlistHandler) HandleRemove(c *fiber.Ctx) error {
	wishlist, err := h.service.Remove(c.UserContext(), actor(c), c.Params("productId"))
	if err != nil {
		return writeError(c, "Could not remove product from wishlist", err)
	}
	return c.JSON(fiber.Map{"wishlist": wishlist})
}

func (h *WishlistHandler) HandleClear(c *fiber.Ctx) error {
	wishlist, err := h.service.Clear(c.UserContext(), actor(c))
	if err != nil {
		return writeError(c, "Could not clear wishlist", err)
	}
	return c.JSON(fiber.Map{"message": "Wishlist cleared", "wishlist": wishlist})
}
