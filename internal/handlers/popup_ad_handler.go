package handlers

import (
	"errors"

	"apexify/internal/middleware"
	"apexify/internal/models"
	"apexify/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PopupAdHandler handles HTTP requests for popup ads.
type PopupAdHandler struct {
	service *services.PopupAdService
	auth    fiber.Handler
}

// NewPopupAdHandler creates a new PopupAdHandler. auth guards the admin routes.
func NewPopupAdHandler(service *services.PopupAdService, auth fiber.Handler) *PopupAdHandler {
	return &PopupAdHandler{service: service, auth: auth}
}

// RegisterRoutes registers the popup ad routes with the Fiber app.
func (h *PopupAdHandler) RegisterRoutes(router fiber.Router) {
	popupRoutes := router.Group("/popup-ads")
	popupRoutes.Get("/active", h.HandleActive)

	admin := []fiber.Handler{h.auth, middleware.RequireRoles(models.RoleAdmin)}
	popupRoutes.Get("/", append(admin, h.HandleList)...)
	popupRoutes.Post("/", append(admin, h.HandleCreate)...)
	popupRoutes.Get("/:id", append(admin, h.HandleGet)...)
	popupRoutes.Put("/:id", append(admin, h.HandleUpdate)...)
	popupRoutes.Delete("/:id", append(admin, h.HandleDelete)...)
	popupRoutes.Patch("/:id/toggle", append(admin, h.HandleToggle)...)
}

// HandleActive returns the ad to show, or null when none is active.
func (h *PopupAdHandler) HandleActive(c *fiber.Ctx) error {
	ad, err := h.service.GetActive(c.UserContext())
	if errors.Is(err, models.ErrNotFound) {
		return c.JSON(fiber.Map{"popupAd": nil})
	}
	if err != nil {
		return writeError(c, "Could not retrieve popup ad", err)
	}
	return c.JSON(fiber.Map{"popupAd": ad})
}

// HandleList lists every popup ad.
func (h *PopupAdHandler) HandleList(c *fiber.Ctx) error {
	ads, err := h.service.List(c.UserContext(), actor(c))
	if err != nil {
		return writeError(c, "Could not retrieve popup ads", err)
	}
	return c.JSON(ads)
}

// HandleGet retrieves a single popup ad.
func (h *PopupAdHandler) HandleGet(c *fiber.Ctx) error {
	ad, err := h.service.Get(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return writeError(c, "Could not retrieve popup ad", err)
	}
	return c.JSON(ad)
}

// HandleCreate creates a popup ad.
func (h *PopupAdHandler) HandleCreate(c *fiber.Ctx) error {
	var in services.PopupAdInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c, err)
	}
	ad, err := h.service.Create(c.UserContext(), actor(c), in)
	if err != nil {
		return writeError(c, "Could not create popup ad", err)
	}
	return c.Status(fiber.StatusCreated).JSON(ad)
}

// HandleUpdate replaces the editable fields of a popup ad.
func (h *PopupAdHandler) HandleUpdate(c *fiber.Ctx) error {
	var in services.PopupAdInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c, err)
	}
	ad, err := h.service.Update(c.UserContext(), actor(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, "Could not update popup ad", err)
	}
	return c.JSON(ad)
}

// HandleDelete removes a popup ad.
func (h *PopupAdHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return writeError(c, "Could not delete popup ad", err)
	}
	return c.JSON(fiber.Map{"message": "Popup ad deleted successfully"})
}

// HandleToggle flips whether a popup ad is shown.
func (h *PopupAdHandler) HandleToggle(c *fiber.Ctx) error {
	ad, err := h.service.Toggle(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return writeError(c, "Could not toggle popup ad", err)
	}
	return c.JSON(ad)
}
