package handlers

import (
	"apexify/internal/middleware"
	"apexify/internal/models"
	"apexify/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// CouponHandler handles HTTP requests for coupons. All routes require
// authentication; management routes are for vendors and admins.
type CouponHandler struct {
	service *services.CouponService
	auth    fiber.Handler
}

// NewCouponHandler creates a new CouponHandler.
func NewCouponHandler(service *services.CouponService, auth fiber.Handler) *CouponHandler {
	return &CouponHandler{service: service, auth: auth}
}

// RegisterRoutes registers the coupon routes with the Fiber app.
func (h *CouponHandler) RegisterRoutes(router fiber.Router) {
	couponRoutes := router.Group("/coupons", h.auth)
	couponRoutes.Post("/validate", h.HandleValidate)
	couponRoutes.Post("/apply", h.HandleApply)

	sellers := middleware.RequireRoles(models.RoleVendor, models.RoleAdmin)
	couponRoutes.Get("/", sellers, h.HandleList)
	couponRoutes.Post("/", sellers, h.HandleCreate)
	couponRoutes.Put("/:id", sellers, h.HandleUpdate)
	couponRoutes.Delete("/:id", sellers, h.HandleDelete)
}

// ValidateRequest asks for a quote on a cart.
type ValidateRequest struct {
	Code       string            `json:"code"`
	OrderTotal decimal.Decimal   `json:"orderTotal"`
	CartItems  []models.CartLine `json:"cartItems"`
}

// HandleValidate quotes the discount code would give without redeeming it.
func (h *CouponHandler) HandleValidate(c *fiber.Ctx) error {
	var req ValidateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if req.Code == "" {
		return writeError(c, "Invalid coupon", models.NewValidationError("code", "is required"))
	}

	quote, err := h.service.ValidateCoupon(c.UserContext(), req.Code, req.OrderTotal, req.CartItems, actor(c).ID)
	if err != nil {
		return writeError(c, "Invalid coupon", err)
	}
	return c.JSON(fiber.Map{
		"valid":  true,
		"coupon": quote,
	})
}

// ApplyRequest names the coupon to redeem.
type ApplyRequest struct {
	Code string `json:"code"`
}

// HandleApply redeems a coupon for the caller outside of checkout.
func (h *CouponHandler) HandleApply(c *fiber.Ctx) error {
	var req ApplyRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if req.Code == "" {
		return writeError(c, "Could not apply coupon", models.NewValidationError("code", "is required"))
	}

	quote, err := h.service.ApplyCoupon(c.UserContext(), req.Code, actor(c).ID)
	if err != nil {
		return writeError(c, "Could not apply coupon", err)
	}
	return c.JSON(fiber.Map{
		"message": "Coupon applied successfully",
		"coupon":  quote,
	})
}

// HandleList lists every coupon for admins and the caller's own for vendors.
func (h *CouponHandler) HandleList(c *fiber.Ctx) error {
	coupons, err := h.service.ListCoupons(c.UserContext(), actor(c))
	if err != nil {
		return writeError(c, "Could not retrieve coupons", err)
	}
	return c.JSON(coupons)
}

// HandleCreate creates a coupon.
func (h *CouponHandler) HandleCreate(c *fiber.Ctx) error {
	var in services.CouponInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c, err)
	}
	coupon, err := h.service.CreateCoupon(c.UserContext(), actor(c), in)
	if err != nil {
		return writeError(c, "Could not create coupon", err)
	}
	return c.Status(fiber.StatusCreated).JSON(coupon)
}

// HandleUpdate replaces the editable fields of a coupon.
func (h *CouponHandler) HandleUpdate(c *fiber.Ctx) error {
	var in services.CouponInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c, err)
	}
	coupon, err := h.service.UpdateCoupon(c.UserContext(), actor(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, "Could not update coupon", err)
	}
	return c.JSON(coupon)
}

// HandleDelete removes a coupon.
func (h *CouponHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.DeleteCoupon(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return writeError(c, "Could not delete coupon", err)
	}
	return c.JSON(fiber.Map{"message": "Coupon deleted successfully"})
}
